// Package guard provides the process-wide critical section around booking
// creation.
package guard

import (
	"context"
	"fmt"
	"time"
)

// Lock is a mutual-exclusion lock whose acquisition honours a context.
// The zero value is not usable; use NewLock.
type Lock struct {
	sem    chan struct{}
	onWait func(time.Duration)
}

// NewLock creates a Lock. onWait, if set, receives how long each successful
// acquisition waited.
func NewLock(onWait func(time.Duration)) *Lock {
	return &Lock{sem: make(chan struct{}, 1), onWait: onWait}
}

// Do runs fn while holding the lock. It gives up waiting when ctx is done.
// The lock is released when fn returns, errors or panics; fn must respect
// ctx so an expired run cannot hold the lock past its deadline.
func (l *Lock) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	start := time.Now()
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("waiting for guard: %w", ctx.Err())
	}
	defer func() { <-l.sem }()

	if l.onWait != nil {
		l.onWait(time.Since(start))
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("waiting for guard: %w", err)
	}
	return fn(ctx)
}
