// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package pbar

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ostafen/pronomid/pkg/util/format"
)

const MinRefreshRate = time.Millisecond * 500

// ProgressBarState holds all the data needed to render the progress bar
type ProgressBarState struct {
	Out            io.Writer
	TotalFiles     int
	ProcessedFiles int
	Identified     int
	ProcessedBytes int64
	StartTime      time.Time
	LastUpdateTime time.Time
}

// NewProgressBarState initializes a new ProgressBarState writing to stdout.
func NewProgressBarState(totalFiles int) *ProgressBarState {
	return &ProgressBarState{
		Out:        os.Stdout,
		TotalFiles: totalFiles,
		StartTime:  time.Now(),
	}
}

// Add records one processed file.
func (pbs *ProgressBarState) Add(size int64, identified bool) {
	pbs.ProcessedFiles++
	pbs.ProcessedBytes += size
	if identified {
		pbs.Identified++
	}
}

// Render updates and prints the progress bar line
func (pbs *ProgressBarState) Render(force bool) {
	if !force && time.Since(pbs.LastUpdateTime) < MinRefreshRate {
		return
	}
	pbs.LastUpdateTime = time.Now()

	percentage := 100.0
	if pbs.TotalFiles > 0 {
		percentage = float64(pbs.ProcessedFiles) / float64(pbs.TotalFiles) * 100
	}

	barLength := 20
	filledLen := int(float64(barLength) * percentage / 100)
	var bar string
	if filledLen >= barLength {
		bar = strings.Repeat("=", barLength)
	} else {
		bar = strings.Repeat("=", filledLen) + ">" + strings.Repeat(" ", barLength-filledLen-1)
	}

	elapsed := time.Since(pbs.StartTime).Seconds()

	var rate float64
	if elapsed > 0 {
		rate = float64(pbs.ProcessedFiles) / elapsed
	}

	var etaStr string
	if rate > 0 {
		etaSeconds := float64(pbs.TotalFiles-pbs.ProcessedFiles) / rate
		etaStr = fmt.Sprintf("%02d:%02d:%02d remaining",
			int(etaSeconds/3600),
			int(etaSeconds/60)%60,
			int(etaSeconds)%60)
	} else {
		etaStr = "calculating..."
	}

	// \r moves the cursor to the beginning of the line; trailing spaces clear
	// leftovers of a previous longer line
	fmt.Fprintf(pbs.Out, "\r[INFO] Progress: [%s] %3.0f%% (%d/%d files, %s) | Identified: %d | @ %.1f files/s [%s]    ",
		bar,
		percentage,
		pbs.ProcessedFiles,
		pbs.TotalFiles,
		format.FormatBytes(pbs.ProcessedBytes),
		pbs.Identified,
		rate,
		etaStr)
}

// Finish prints a newline, effectively finishing the progress bar output
func (pbs *ProgressBarState) Finish() {
	fmt.Fprintln(pbs.Out)
}
