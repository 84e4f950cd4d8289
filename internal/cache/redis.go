// Package cache holds the Redis-backed token buckets that throttle the API.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// A throttled request makes one script call and the limiter fails open, so
// Redis gets short deadlines and a small pool. Values given in the URL
// query (dial_timeout, read_timeout, pool_size, ...) win.
const (
	throttleDialTimeout  = 2 * time.Second
	throttleReadTimeout  = 500 * time.Millisecond
	throttleWriteTimeout = 500 * time.Millisecond
	throttlePoolSize     = 8
	throttlePoolTimeout  = time.Second
	throttleIdleTime     = 5 * time.Minute
)

// Cache runs rate limit checks against Redis.
type Cache struct {
	client *redis.Client
}

// New connects to redisURL and verifies the server answers.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	tuneForThrottling(opt)

	c := NewFromClient(redis.NewClient(opt))
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis unreachable: %w", err)
	}
	return c, nil
}

// NewFromClient wraps an existing Redis client.
func NewFromClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func tuneForThrottling(opt *redis.Options) {
	if opt.DialTimeout == 0 {
		opt.DialTimeout = throttleDialTimeout
	}
	if opt.ReadTimeout == 0 {
		opt.ReadTimeout = throttleReadTimeout
	}
	if opt.WriteTimeout == 0 {
		opt.WriteTimeout = throttleWriteTimeout
	}
	if opt.PoolSize == 0 {
		opt.PoolSize = throttlePoolSize
	}
	if opt.PoolTimeout == 0 {
		opt.PoolTimeout = throttlePoolTimeout
	}
	if opt.ConnMaxIdleTime == 0 {
		opt.ConnMaxIdleTime = throttleIdleTime
	}
}

// Ping reports whether Redis is reachable. Used by /readyz.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}
