package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const window = 24 * time.Hour

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryTracker is a single-process tracker. Each (tenant, capability) pair
// gets a token bucket holding a day's allowance that refills evenly over
// 24 hours. Idle buckets are dropped by Evict.
type MemoryTracker struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	now     func() time.Time
}

// NewMemoryTracker creates a tracker allowing limit units per day.
func NewMemoryTracker(limit int) *MemoryTracker {
	return &MemoryTracker{
		buckets: make(map[string]*bucket),
		limit:   limit,
		now:     time.Now,
	}
}

// TryConsume takes one token from the tenant's bucket.
func (t *MemoryTracker) TryConsume(_ context.Context, tenantID uint, capability string) (bool, error) {
	if t.limit <= 0 {
		return false, nil
	}
	key := fmt.Sprintf("%d:%s", tenantID, capability)
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(window/time.Duration(t.limit)), t.limit)}
		t.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1), nil
}

// Evict drops buckets not used for longer than idle and returns how many
// were removed. A dropped bucket starts full again, so idle must be at least
// the refill window to keep the allowance honest.
func (t *MemoryTracker) Evict(idle time.Duration) int {
	if idle < window {
		idle = window
	}
	cutoff := t.now().Add(-idle)

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for key, b := range t.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(t.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked buckets.
func (t *MemoryTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buckets)
}
