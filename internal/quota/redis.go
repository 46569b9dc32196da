package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "gigbook:quota:"
	keyTTL    = 48 * time.Hour
)

// RedisTracker counts daily usage in Redis so every replica shares the same
// allowance.
type RedisTracker struct {
	rdb   redis.Cmdable
	limit int64
	now   func() time.Time
}

// NewRedisTracker creates a tracker allowing limit units per tenant per
// capability per UTC day.
func NewRedisTracker(rdb redis.Cmdable, limit int) *RedisTracker {
	return &RedisTracker{rdb: rdb, limit: int64(limit), now: time.Now}
}

// TryConsume increments today's counter and reports whether it is still
// within the limit.
func (t *RedisTracker) TryConsume(ctx context.Context, tenantID uint, capability string) (bool, error) {
	key := fmt.Sprintf("%s%d:%s:%s", keyPrefix, tenantID, capability, t.now().UTC().Format("20060102"))

	var incr *redis.IntCmd
	_, err := t.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, keyTTL)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("quota INCR: %w", err)
	}
	return incr.Val() <= t.limit, nil
}
