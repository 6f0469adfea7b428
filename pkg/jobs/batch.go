package jobs

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// SleepFunc pauses between batches. It returns early with ctx.Err() when ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// BatchConfig describes a fixed-window throttle: Size items run concurrently, then the
// runner waits Delay before issuing the next chunk.
type BatchConfig struct {
	Size  int
	Delay time.Duration
	Sleep SleepFunc
}

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RunBatches applies fn to every item, chunking items into batches of cfg.Size.
// fn must turn its own failures into a result value; one item never aborts its siblings.
// Results are returned in input order. Once a chunk is issued it runs to completion; a
// cancelled ctx only stops further chunks from being issued, leaving zero values for them.
func RunBatches[T any, R any](ctx context.Context, items []T, cfg BatchConfig, fn func(context.Context, T) R) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}
	size := cfg.Size
	if size <= 0 {
		size = len(items)
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}

		var g errgroup.Group
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				results[i] = fn(ctx, items[i])
				return nil
			})
		}
		_ = g.Wait()

		if end < len(items) {
			if err := sleep(ctx, cfg.Delay); err != nil {
				return results
			}
		}
	}

	return results
}
