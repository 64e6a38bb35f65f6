package identify

import (
	"context"
	"sync"
	"time"
)

// Outcome is the result of identifying one file of a batch.
type Outcome struct {
	// Index is the position of Path in the input.
	Index    int
	Path     string
	// Size is the file size, also set for unidentified files. It is zero
	// when the file could not be opened.
	Size     int64
	Result   *Result
	Err      error
	Duration time.Duration
}

type job struct {
	index int
	path  string
}

// IdentifyAll identifies paths with Options.Workers independent pipelines
// sharing the database. Outcomes are delivered in completion order and the
// channel is closed once every path is done or ctx is cancelled.
func (id *Identifier) IdentifyAll(ctx context.Context, paths []string) <-chan Outcome {
	workers := max(1, id.opts.Workers)

	jobs := make(chan job, workers)
	out := make(chan Outcome, workers)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				start := time.Now()
				res, size, err := id.identify(ctx, j.path)

				select {
				case out <- Outcome{
					Index:    j.index,
					Path:     j.path,
					Size:     size,
					Result:   res,
					Err:      err,
					Duration: time.Since(start),
				}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, p := range paths {
			select {
			case jobs <- job{index: i, path: p}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
