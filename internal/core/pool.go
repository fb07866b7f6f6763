package core

import (
	"context"
	"sync"
)

// runPool applies fn to every item using at most workers goroutines.
// Results keep the input order. The first error cancels the work that has
// not started yet and is returned once running calls finish.
func runPool[T, R any](ctx context.Context, workers int, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	if workers < 1 {
		workers = 1
	}

	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]R, len(items))
	sem := make(chan struct{}, workers)
	errChan := make(chan error, len(items))
	var wg sync.WaitGroup

dispatch:
	for i, item := range items {
		select {
		case <-poolCtx.Done():
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			defer func() { <-sem }()

			if poolCtx.Err() != nil {
				return
			}
			r, err := fn(poolCtx, item)
			if err != nil {
				errChan <- err
				cancel()
				return
			}
			results[i] = r
		}(i, item)
	}

	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
