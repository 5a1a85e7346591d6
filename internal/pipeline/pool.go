package pipeline

import (
	"context"
	"sync"
)

// Process runs fn over items on a bounded pool of workers. Results keep the order of
// items. Enqueueing stops when ctx is cancelled and the context error is returned
// after in-flight items finish.
func Process[T, R any](ctx context.Context, items []T, workers int, fn func(ctx context.Context, item T) R) ([]R, error) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	type job struct {
		index int
		item  T
	}

	results := make([]R, len(items))
	jobChan := make(chan job, len(items))
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				results[j.index] = fn(ctx, j.item)
			}
		}()
	}

	// Enqueue jobs; the buffer holds every item so sends never block
	var cancelled error
	for i, item := range items {
		if cancelled = ctx.Err(); cancelled != nil {
			break
		}
		jobChan <- job{index: i, item: item}
	}
	close(jobChan)

	// Wait for all workers
	wg.Wait()

	if cancelled != nil {
		return nil, cancelled
	}
	return results, nil
}
