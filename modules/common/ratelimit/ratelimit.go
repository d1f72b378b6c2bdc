// Package ratelimit gates the pipeline with a fixed-window counter per
// caller identity. Counts within a window are monotonically consistent: the
// increment and the check are one atomic step, so two concurrent requests at
// a window boundary can never both be admitted past the limit.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether a request from the given identity is admitted.
type Limiter interface {
	Allow(ctx context.Context, identity string) (bool, error)
}

// Redis - Redis INCR 기반 fixed-window limiter
type Redis struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRedis(rdb *redis.Client, limit int, window time.Duration) *Redis {
	return &Redis{
		rdb:    rdb,
		limit:  limit,
		window: window,
		prefix: "ratelimit",
	}
}

func (l *Redis) Allow(ctx context.Context, identity string) (bool, error) {
	key := fmt.Sprintf("%s:%s", l.prefix, identity)

	// INCR returns the post-increment count atomically.
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr failed: %w", err)
	}

	// First hit in this window starts the clock.
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire failed: %w", err)
		}
	}

	return count <= int64(l.limit), nil
}

// Memory - Redis 없는 배포용 in-process limiter
type Memory struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	count int
	reset time.Time
}

func NewMemory(limit int, window time.Duration) *Memory {
	return &Memory{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (l *Memory) Allow(_ context.Context, identity string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[identity]
	if !ok || now.After(b.reset) {
		b = &bucket{reset: now.Add(l.window)}
		l.buckets[identity] = b
	}

	b.count++
	return b.count <= l.limit, nil
}
