// Package worker provides a bounded pool for offloading CPU-bound work off
// the connection I/O path. Decode/resample and recognizer calls run here so
// slow inference on one session cannot delay frame receipt on another.
package worker

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Pool limits the number of concurrently executing offloaded tasks.
// It is shared process-wide and safe for concurrent use.
type Pool struct {
	sem  *semaphore.Weighted
	size int64
}

// NewPool creates a pool allowing up to size concurrent tasks.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: int64(size),
	}
}

// Size returns the pool's concurrency limit.
func (p *Pool) Size() int { return int(p.size) }

// Do runs fn on its own goroutine once a pool slot is available and waits
// for it to finish. If ctx is cancelled while waiting, Do returns the
// context error; work already started is allowed to complete and release
// its slot, but the caller discards the result.
func (p *Pool) Do(ctx context.Context, fn func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire worker slot: %w", err)
	}
	done := make(chan struct{})
	go func() {
		defer p.sem.Release(1)
		defer close(done)
		fn()
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
