package guard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SerializesCallers(t *testing.T) {
	// Arrange
	l := NewLock(nil)
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup

	// Act
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Do(context.Background(), func(ctx context.Context) error {
				n := inside.Add(1)
				for {
					m := maxInside.Load()
					if n <= m || maxInside.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	// Assert
	assert.Equal(t, int32(1), maxInside.Load())
}

func TestDo_ReturnsFnError(t *testing.T) {
	l := NewLock(nil)
	want := errors.New("create failed")

	err := l.Do(context.Background(), func(ctx context.Context) error { return want })

	assert.ErrorIs(t, err, want)
	assert.NoError(t, l.Do(context.Background(), func(ctx context.Context) error { return nil }), "released after error")
}

func TestDo_ReleasesOnPanic(t *testing.T) {
	l := NewLock(nil)

	assert.Panics(t, func() {
		_ = l.Do(context.Background(), func(ctx context.Context) error { panic("boom") })
	})

	assert.NoError(t, l.Do(context.Background(), func(ctx context.Context) error { return nil }))
}

func TestDo_WaitHonoursContext(t *testing.T) {
	// Arrange
	l := NewLock(nil)
	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = l.Do(context.Background(), func(ctx context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	ran := false

	// Act
	err := l.Do(ctx, func(ctx context.Context) error { ran = true; return nil })

	// Assert
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ran)
	close(release)
}

func TestDo_ReleasesAfterTimeoutInsideFn(t *testing.T) {
	l := NewLock(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Do(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	assert.NoError(t, l.Do(context.Background(), func(ctx context.Context) error { return nil }))
}

func TestDo_ReportsWait(t *testing.T) {
	var waits []time.Duration
	l := NewLock(func(d time.Duration) { waits = append(waits, d) })

	_ = l.Do(context.Background(), func(ctx context.Context) error { return nil })

	assert.Len(t, waits, 1)
}
