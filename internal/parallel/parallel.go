// Package parallel runs a function over a slice on a bounded worker pool
// and returns the results in input order.
package parallel

import (
	"context"
	"sync"
)

// MapFunc processes one item.
type MapFunc[T any, R any] func(ctx context.Context, item T) (R, error)

// Result pairs an item's output with its error.
type Result[R any] struct {
	Value R
	Err   error
}

// Map executes fn on each item using a worker pool sized for the workload.
// Results are returned in the order of items. Once ctx is done, items not
// yet started are reported with ctx's error.
func Map[T any, R any](ctx context.Context, items []T, kind Workload, fn MapFunc[T, R]) []Result[R] {
	if len(items) == 0 {
		return nil
	}

	numWorkers := CalculateWorkers(len(items), kind)
	results := make([]Result[R], len(items))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					results[i].Err = err
					continue
				}
				v, err := fn(ctx, items[i])
				results[i] = Result[R]{Value: v, Err: err}
			}
		}()
	}

	for i := range items {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// Collect runs fn over items and keeps the successful values in input
// order. Failed items are passed to onError when it is non-nil.
func Collect[T any, R any](ctx context.Context, items []T, kind Workload, fn MapFunc[T, R], onError func(item T, err error)) []R {
	results := Map(ctx, items, kind, fn)
	var collected []R
	for i, r := range results {
		if r.Err != nil {
			if onError != nil {
				onError(items[i], r.Err)
			}
			continue
		}
		collected = append(collected, r.Value)
	}
	return collected
}
