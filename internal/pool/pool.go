// Package pool implements a bounded worker pool whose results are drained in
// completion order, not submission order.
package pool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run fans items out to `workers` goroutines executing fn and returns a
// channel of results ordered by completion. The channel closes once all work
// finishes or ctx is cancelled. A reader that stops draining must cancel ctx,
// otherwise in-flight workers block forever on the send.
func Run[I, O any](ctx context.Context, items []I, workers int, fn func(context.Context, I) O) <-chan O {
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) && len(items) > 0 {
		workers = len(items)
	}
	out := make(chan O)
	jobs := make(chan I)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for _, item := range items {
			select {
			case jobs <- item:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for item := range jobs {
				result := fn(gctx, item)
				select {
				case out <- result:
				case <-gctx.Done():
					return nil
				}
			}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(out)
	}()
	return out
}
