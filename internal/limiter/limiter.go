// Package limiter bounds the number of simultaneously running tasks that
// share a resource pool. Waiting tasks are admitted in FIFO order as
// capacity frees.
package limiter

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// maxDefaultLimit caps the derived default so wide machines do not flood
// the filesystem with in-flight operations.
const maxDefaultLimit = 16

// fallbackLimit is used when host parallelism cannot be detected.
const fallbackLimit = 4

// DefaultLimit derives the default concurrency bound from host parallelism.
func DefaultLimit() int {
	n := runtime.NumCPU()
	if n <= 0 {
		return fallbackLimit
	}
	if n*2 > maxDefaultLimit {
		return maxDefaultLimit
	}
	return n * 2
}

// Limiter admits at most N tasks at a time. The zero value is not usable;
// construct with New.
type Limiter struct {
	sem   *semaphore.Weighted
	limit int
}

// New creates a limiter bounded at n concurrent tasks. Values below 1 use
// DefaultLimit.
func New(n int) *Limiter {
	if n < 1 {
		n = DefaultLimit()
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(n)), limit: n}
}

// Limit returns the configured bound.
func (l *Limiter) Limit() int {
	return l.limit
}

// Do runs task once capacity is available, releasing the slot when it
// returns. Acquisition fails only when ctx is done.
func (l *Limiter) Do(ctx context.Context, task func(context.Context) error) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer l.sem.Release(1)
	return task(ctx)
}
