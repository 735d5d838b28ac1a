// Package pool fans a per-file task out over a bounded set of workers.
//
// Failures are isolated: one bad file is recorded and the rest of the batch
// keeps going. Tasks share nothing, so workers need no coordination beyond
// the job feed.
package pool

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Task processes a single file.
type Task func(path string) error

// Failure records one file that could not be processed.
type Failure struct {
	Path string
	Err  error
}

const progressWidth = 64

// DefaultWorkers picks a worker count for the current machine.
func DefaultWorkers() int {
	workers := runtime.NumCPU() - 1
	if workers < 2 {
		workers = 2
	}

	return workers
}

// Run applies task to every path using the given number of workers and
// returns the failures, in no particular order. A cancelled context stops
// feeding new jobs; in-flight tasks finish.
func Run(ctx context.Context, paths []string, workers int, showProgress bool, task Task) []Failure {
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	if workers > len(paths) {
		workers = len(paths)
	}

	if len(paths) == 0 {
		return nil
	}

	var progress *mpb.Progress

	var bar *mpb.Bar

	if showProgress {
		progress = mpb.New(mpb.WithWidth(progressWidth))
		bar = progress.AddBar(int64(len(paths)),
			mpb.PrependDecorators(
				decor.Name("Processing: "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
				decor.AverageETA(decor.ET_STYLE_GO),
			),
		)
	}

	jobs := make(chan string, len(paths))
	results := make(chan Failure, len(paths))

	var waitGroup sync.WaitGroup

	for range workers {
		waitGroup.Add(1)

		go func() {
			defer waitGroup.Done()

			for path := range jobs {
				if err := task(path); err != nil {
					slog.Error("processing failed", "file path", path, "error", err)

					results <- Failure{Path: path, Err: err}
				}

				if bar != nil {
					bar.Increment()
				}
			}
		}()
	}

feed:
	for _, path := range paths {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- path:
		}
	}

	close(jobs)

	waitGroup.Wait()
	close(results)

	if progress != nil {
		// Completes the bar even when a cancelled context cut the feed short.
		bar.SetTotal(-1, true)
		progress.Wait()
	}

	var failures []Failure
	for failure := range results {
		failures = append(failures, failure)
	}

	return failures
}
