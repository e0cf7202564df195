// Package worker bounds the concurrency and request rate of judge calls.
package worker

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool fans work out over a bounded number of goroutines
type Pool struct {
	workers int
}

// NewPool creates a new pool with the specified number of workers
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Workers returns the concurrency cap
func (p *Pool) Workers() int {
	return p.workers
}

// Run calls fn for every index in [0, n) with at most Workers calls in flight.
// fn owns its own failure handling; one slow or failing call never cancels the
// others. Once ctx is done, indexes not yet started are skipped.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int)) {
	g := new(errgroup.Group)
	g.SetLimit(p.workers)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fn(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
}

// Map runs fn over items on the pool and returns results in input order.
// Slots for items skipped after cancellation hold skipped(item).
func Map[T, R any](ctx context.Context, p *Pool, items []T, fn func(context.Context, T) R, skipped func(T) R) []R {
	results := make([]R, len(items))
	started := make([]bool, len(items))
	p.Run(ctx, len(items), func(ctx context.Context, i int) {
		started[i] = true
		results[i] = fn(ctx, items[i])
	})
	for i, ok := range started {
		if !ok {
			results[i] = skipped(items[i])
		}
	}
	return results
}
