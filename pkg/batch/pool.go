// Package batch runs per-item work over a bounded worker pool. Batch
// operations in this codebase are best effort: a failing item is counted as
// skipped, never propagated, and the caller always waits for the whole pool.
package batch

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultWorkers is the pool size used when the caller passes zero.
const DefaultWorkers = 4

// MaxWorkers caps the pool; per-item work is network bound and external
// collaborators ratelimit aggressively above this.
const MaxWorkers = 6

// Outcome summarizes one pool run.
type Outcome struct {
	Done    int `json:"done"`
	Skipped int `json:"skipped"`
}

// Run executes work(ctx, item) for every element of items using up to the
// given number of workers. Workers pull the next index from a shared counter,
// so each item is processed at most once; there is no ordering guarantee on
// completion, only that every item has been attempted when Run returns.
// A context cancelled mid-run counts the remaining items as skipped.
func Run[T any](ctx context.Context, items []T, workers int, work func(ctx context.Context, item T) error) Outcome {
	if len(items) == 0 {
		return Outcome{}
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}
	if workers > len(items) {
		workers = len(items)
	}

	var next, done, skipped int64
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&next, 1) - 1)
				if i >= len(items) {
					return
				}
				if ctx.Err() != nil {
					atomic.AddInt64(&skipped, 1)
					continue
				}
				if err := work(ctx, items[i]); err != nil {
					atomic.AddInt64(&skipped, 1)
				} else {
					atomic.AddInt64(&done, 1)
				}
			}
		}()
	}

	wg.Wait()
	return Outcome{Done: int(done), Skipped: int(skipped)}
}
