// Package parallel provides the worker pool used to cleanse large record sets.
//
// Work is split into row ranges (see Chunks) and fanned out to a fixed number
// of goroutines. ProcessIndexed writes each result back to its input position,
// so callers get results in input order regardless of scheduling.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// WorkerPool manages a pool of goroutines for parallel processing
type WorkerPool struct {
	numWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a new worker pool bound to ctx. numWorkers <= 0
// selects runtime.NumCPU().
func NewWorkerPool(ctx context.Context, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers: numWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Workers returns the number of goroutines the pool runs
func (wp *WorkerPool) Workers() int {
	return wp.numWorkers
}

// ProcessIndexed executes work items in parallel while preserving order.
// It returns the context error if the pool is cancelled before all items ran.
func ProcessIndexed[T, R any](
	wp *WorkerPool,
	items []T,
	worker func(int, T) R,
) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}

	itemCh := make(chan indexedItem[T], len(items))
	resultCh := make(chan indexedResult[R], len(items))

	var wg sync.WaitGroup
	for range min(wp.numWorkers, len(items)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				select {
				case <-wp.ctx.Done():
					return
				default:
					resultCh <- indexedResult[R]{
						index:  item.index,
						result: worker(item.index, item.value),
					}
				}
			}
		}()
	}

	go func() {
		defer close(itemCh)
		for i, item := range items {
			select {
			case <-wp.ctx.Done():
				return
			case itemCh <- indexedItem[T]{index: i, value: item}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]R, len(items))
	done := 0
	for result := range resultCh {
		results[result.index] = result.result
		done++
	}

	if done != len(items) {
		if err := wp.ctx.Err(); err != nil {
			return nil, err
		}
		return nil, context.Canceled
	}

	return results, nil
}

// Close shuts down the worker pool
func (wp *WorkerPool) Close() {
	wp.cancel()
}

// Range is a half-open row interval [Start, End)
type Range struct {
	Start int
	End   int
}

// Len returns the number of rows in the range
func (r Range) Len() int {
	return r.End - r.Start
}

// Chunks splits [0, n) into consecutive ranges of at most size rows.
func Chunks(n, size int) []Range {
	if n <= 0 {
		return nil
	}
	if size <= 0 || size > n {
		size = n
	}
	ranges := make([]Range, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		ranges = append(ranges, Range{Start: start, End: min(start+size, n)})
	}
	return ranges
}

// indexedItem holds an item with its index
type indexedItem[T any] struct {
	index int
	value T
}

// indexedResult holds a result with its index
type indexedResult[R any] struct {
	index  int
	result R
}
