// Package summary aggregates the outcomes of a batch identification.
package summary

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/ostafen/pronomid/internal/identify"
	fmtutil "github.com/ostafen/pronomid/pkg/util/format"
)

// Count is the number of files identified as one format.
type Count struct {
	PUID  string
	Name  string
	Files int
}

// Timing describes the per-file identification latency.
type Timing struct {
	Mean   time.Duration
	Median time.Duration
	P95    time.Duration
	Max    time.Duration
	StdDev time.Duration
}

type Summary struct {
	Files        int
	Identified   int
	Unidentified int
	Refined      int
	Failed       int
	Bytes        int64
	// Formats is sorted by decreasing number of files, then by PUID.
	Formats []Count
	Timing  Timing
}

// Collector accumulates outcomes. It is not safe for concurrent use.
type Collector struct {
	s         Summary
	counts    map[string]*Count
	durations stats.Float64Data
}

func NewCollector() *Collector {
	return &Collector{counts: make(map[string]*Count)}
}

func (c *Collector) Add(o identify.Outcome) {
	c.s.Files++
	c.durations = append(c.durations, float64(o.Duration))

	switch {
	case o.Err != nil:
		c.s.Failed++
		return
	case o.Result == nil:
		c.s.Unidentified++
		return
	}

	c.s.Identified++
	c.s.Bytes += o.Result.Size
	if o.Result.Refined() {
		c.s.Refined++
	}

	puid, name := "", ""
	if f := o.Result.MainFormat; f != nil {
		puid, name = f.PUID, f.String()
	}

	cnt, ok := c.counts[puid]
	if !ok {
		cnt = &Count{PUID: puid, Name: name}
		c.counts[puid] = cnt
	}
	cnt.Files++
}

// Summary returns the aggregate of the outcomes added so far.
func (c *Collector) Summary() Summary {
	s := c.s
	s.Formats = make([]Count, 0, len(c.counts))
	for _, cnt := range c.counts {
		s.Formats = append(s.Formats, *cnt)
	}
	sort.Slice(s.Formats, func(i, j int) bool {
		if s.Formats[i].Files != s.Formats[j].Files {
			return s.Formats[i].Files > s.Formats[j].Files
		}
		return s.Formats[i].PUID < s.Formats[j].PUID
	})

	if len(c.durations) > 0 {
		s.Timing = Timing{
			Mean:   duration(c.durations.Mean()),
			Median: duration(c.durations.Median()),
			P95:    duration(c.durations.Percentile(95)),
			Max:    duration(c.durations.Max()),
			StdDev: duration(c.durations.StandardDeviation()),
		}
	}
	return s
}

func duration(v float64, err error) time.Duration {
	if err != nil {
		return 0
	}
	return time.Duration(v)
}

// Write prints the summary as two aligned tables.
func (s Summary) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Files:\t%d\n", s.Files)
	fmt.Fprintf(tw, "Identified:\t%d (%d refined)\n", s.Identified, s.Refined)
	fmt.Fprintf(tw, "Unidentified:\t%d\n", s.Unidentified)
	fmt.Fprintf(tw, "Failed:\t%d\n", s.Failed)
	fmt.Fprintf(tw, "Identified data:\t%s\n", fmtutil.FormatBytes(s.Bytes))
	fmt.Fprintf(tw, "Latency:\tmean %s, median %s, p95 %s, max %s\n",
		s.Timing.Mean.Round(time.Microsecond),
		s.Timing.Median.Round(time.Microsecond),
		s.Timing.P95.Round(time.Microsecond),
		s.Timing.Max.Round(time.Microsecond),
	)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(s.Formats) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintln(tw, "PUID\tFORMAT\tFILES")
	for _, c := range s.Formats {
		puid := c.PUID
		if puid == "" {
			puid = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\n", puid, c.Name, c.Files)
	}
	return tw.Flush()
}
