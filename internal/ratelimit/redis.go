package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "contact:ratelimit:"

// RedisLimiter is a sliding-window Limiter backed by a redis sorted set per
// client key (member and score are the attempt timestamp). Lets multiple
// instances share one rate-limit state.
type RedisLimiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

// NewRedisLimiter creates a redis-backed sliding-window limiter.
func NewRedisLimiter(client *redis.Client, maxAttempts int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:      client,
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// WithClock overrides the limiter's clock. Used in tests.
func (l *RedisLimiter) WithClock(now func() time.Time) *RedisLimiter {
	l.now = now
	return l
}

// Allow prunes attempts outside the window, counts the remainder, and
// records the current attempt. The count is taken before the append, so a
// rejected attempt is still written.
func (l *RedisLimiter) Allow(ctx context.Context, clientKey string) (bool, error) {
	key := redisKeyPrefix + clientKey
	now := l.now()
	cutoff := now.Add(-l.window).UnixNano()

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(cutoff, 10))
	card := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})
	pipe.Expire(ctx, key, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return card.Val() < int64(l.maxAttempts), nil
}
