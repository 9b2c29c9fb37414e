package ratelimit

import (
	"context"
	"time"

	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/redis/go-redis/v9"
)

// Limiter abstracts the rate counting backend.
type Limiter interface {
	Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error)
}

// RedisLimiter counts requests in Redis via ulule/limiter.
type RedisLimiter struct {
	inner *limiter.Limiter
}

// NewRedisLimiter builds a limiter with the given window and ceiling.
func NewRedisLimiter(client *redis.Client, window time.Duration, max int) (*RedisLimiter, error) {
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: "ratelimit",
	})
	if err != nil {
		return nil, err
	}
	rate := limiter.Rate{Period: window, Limit: int64(max)}
	return &RedisLimiter{inner: limiter.New(store, rate)}, nil
}

// Allow registers a hit for the key and reports whether it is within
// the limit. The window and max arguments are fixed at construction;
// they are accepted here to satisfy Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string, _ time.Duration, _ int) (bool, int, time.Time, error) {
	if l == nil || l.inner == nil {
		return true, 0, time.Now(), nil
	}
	c, err := l.inner.Get(ctx, key)
	if err != nil {
		return false, 0, time.Now(), err
	}
	return !c.Reached, int(c.Remaining), time.Unix(c.Reset, 0), nil
}
