package config

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisSharedCache wraps a *redis.Client to satisfy SharedCache, mirroring
// the thin-wrapper layering the teacher uses for its Redis-backed Pulse
// client: callers build the Redis connection and pass it in, and this type
// exposes only the operations the cache needs.
type redisSharedCache struct {
	rdb *redis.Client
}

// NewRedisSharedCache constructs a SharedCache backed by the given Redis
// connection. The caller owns the connection's lifecycle.
func NewRedisSharedCache(rdb *redis.Client) SharedCache {
	return &redisSharedCache{rdb: rdb}
}

func (c *redisSharedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *redisSharedCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *redisSharedCache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// DeletePrefix scans for keys matching "<prefix>*" and deletes them in
// batches. It is used by the bulk invalidate() path (spec.md §4.2).
func (c *redisSharedCache) DeletePrefix(ctx context.Context, prefix string) error {
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 0).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 100 {
			if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.rdb.Del(ctx, batch...).Err()
	}
	return nil
}
