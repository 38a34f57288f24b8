package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const dialTimeout = 5 * time.Second

// Counter increments a fixed-window counter and reports the new count and the time left in the window
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// NewRedisClient connects to Redis and pings it
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	if err := client.Ping(dialCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis (ping failed): %w", err)
	}
	return client, nil
}

// RedisCounter keeps counters in Redis with INCR and EXPIRE
type RedisCounter struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCounter creates a RedisCounter namespacing keys under prefix
func NewRedisCounter(rdb *redis.Client, prefix string) *RedisCounter {
	return &RedisCounter{rdb: rdb, prefix: prefix}
}

func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	full := c.prefix + ":" + key
	count, err := c.rdb.Incr(ctx, full).Result()
	if err != nil {
		return 0, 0, err
	}
	// first hit opens the window
	if count == 1 {
		if err := c.rdb.Expire(ctx, full, window).Err(); err != nil {
			return count, window, err
		}
		return count, window, nil
	}
	ttl, err := c.rdb.TTL(ctx, full).Result()
	if err != nil {
		return count, window, err
	}
	if ttl < 0 {
		// key lost its expiry; restart the window rather than block forever
		_ = c.rdb.Expire(ctx, full, window).Err()
		ttl = window
	}
	return count, ttl, nil
}

// MemoryCounter is an in-process Counter for tests and single-node development
type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]memoryWindow
	now     func() time.Time
}

type memoryWindow struct {
	count   int64
	resetAt time.Time
}

// NewMemoryCounter creates a MemoryCounter
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{windows: make(map[string]memoryWindow), now: time.Now}
}

func (c *MemoryCounter) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	w, ok := c.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = memoryWindow{resetAt: now.Add(window)}
	}
	w.count++
	c.windows[key] = w
	return w.count, w.resetAt.Sub(now), nil
}
