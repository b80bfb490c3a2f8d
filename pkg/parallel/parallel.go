// Package parallel runs order-preserving transformations over item slices
// with a fixed pool of chunk workers.
//
// The input is split into contiguous chunks, one goroutine per chunk, and
// results land at their input index. A failing chunk never stops the others;
// after all chunks finish, the first error in chunk order wins. Callers that
// need cancellation should slice their input and call in rounds.
package parallel

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Sumatoshi-tech/treefeed/pkg/mathutil"
)

// Options tunes Map and ForEach.
type Options struct {
	// Workers is the goroutine budget. Non-positive means runtime.NumCPU().
	// A single worker runs on the calling goroutine without spawning.
	Workers int

	// WorkerInit, when set, runs once per worker goroutine before its first
	// item. An init error fails that worker's whole chunk.
	WorkerInit func() error
}

// ChunkBounds is the [Start, End) slice of the input assigned to one worker.
type ChunkBounds struct {
	Start int
	End   int
}

// Chunks splits n items into at most workers contiguous chunks of equal
// ceiling size. There are never more chunks than items.
func Chunks(n, workers int) []ChunkBounds {
	if n <= 0 || workers <= 0 {
		return nil
	}

	size := mathutil.CeilDiv(n, workers)

	var chunks []ChunkBounds

	for start := 0; start < n; start += size {
		chunks = append(chunks, ChunkBounds{Start: start, End: min(start+size, n)})
	}

	return chunks
}

// Map transforms every item and returns the results in input order,
// regardless of which worker finished first. On error the results are
// discarded and the first failure in chunk order is returned.
func Map[T, R any](items []T, transform func(T) (R, error), opts Options) ([]R, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]R, len(items))

	chunks := Chunks(len(items), workers)
	if len(chunks) == 0 {
		return results, nil
	}

	if len(chunks) == 1 {
		err := runChunk(items, results, chunks[0], transform, opts.WorkerInit)
		if err != nil {
			return nil, err
		}

		return results, nil
	}

	errs := make([]error, len(chunks))

	var wg sync.WaitGroup

	for k, bounds := range chunks {
		wg.Add(1)

		go func(k int, bounds ChunkBounds) {
			defer wg.Done()

			errs[k] = runChunk(items, results, bounds, transform, opts.WorkerInit)
		}(k, bounds)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// ForEach is Map without collected results.
func ForEach[T any](items []T, fn func(T) error, opts Options) error {
	_, err := Map(items, func(item T) (struct{}, error) {
		return struct{}{}, fn(item)
	}, opts)

	return err
}

// runChunk processes one chunk in index order, stopping at the first error.
func runChunk[T, R any](items []T, results []R, bounds ChunkBounds, transform func(T) (R, error), init func() error) error {
	if init != nil {
		err := init()
		if err != nil {
			return fmt.Errorf("worker init: %w", err)
		}
	}

	for i := bounds.Start; i < bounds.End; i++ {
		r, err := transform(items[i])
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}

		results[i] = r
	}

	return nil
}
