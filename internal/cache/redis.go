package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "guruhub:cache:"

// Redis is a Store shared by every API replica. Failures degrade to cache
// misses, and after repeated failures the breaker skips Redis for a cooldown.
// Invalidations skipped while the circuit is open are bounded by the TTL.
type Redis struct {
	rdb     *redis.Client
	ttl     time.Duration
	log     *slog.Logger
	breaker *breaker
}

func NewRedis(rdb *redis.Client, ttl time.Duration, log *slog.Logger) *Redis {
	return NewRedisWithBreaker(rdb, ttl, log, BreakerConfig{})
}

func NewRedisWithBreaker(rdb *redis.Client, ttl time.Duration, log *slog.Logger, cfg BreakerConfig) *Redis {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	return &Redis{rdb: rdb, ttl: ttl, log: log, breaker: newBreaker(cfg)}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	if !r.breaker.allow() {
		return nil, false
	}

	val, err := r.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		r.breaker.done(nil)
		return nil, false
	}
	r.breaker.done(err)

	if err != nil {
		r.log.WarnContext(ctx, "cache get failed", "key", key, "err", err)
		return nil, false
	}

	return val, true
}

func (r *Redis) Set(ctx context.Context, key string, val []byte) {
	if !r.breaker.allow() {
		return
	}

	err := r.rdb.Set(ctx, redisKeyPrefix+key, val, r.ttl).Err()
	r.breaker.done(err)

	if err != nil {
		r.log.WarnContext(ctx, "cache set failed", "key", key, "err", err)
	}
}

func (r *Redis) InvalidatePrefix(ctx context.Context, prefix string) {
	if !r.breaker.allow() {
		r.log.WarnContext(ctx, "cache invalidate skipped, circuit open", "prefix", prefix)
		return
	}

	err := r.invalidate(ctx, prefix)
	r.breaker.done(err)

	if err != nil {
		r.log.WarnContext(ctx, "cache invalidate failed", "prefix", prefix, "err", err)
	}
}

func (r *Redis) invalidate(ctx context.Context, prefix string) error {
	iter := r.rdb.Scan(ctx, 0, redisKeyPrefix+prefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) == 0 {
		return nil
	}

	return r.rdb.Del(ctx, keys...).Err()
}
