// Package idempotency provides a redis-backed guard for operations that must
// not repeat within a window, such as re-sending a verification code.
package idempotency

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Idempotency gates an operation behind a per-key window.
type Idempotency interface {
	// Acquire reports whether the caller won the window for key. The first
	// acquisition within ttl returns true; later ones return false until the
	// window lapses.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release drops the window early, letting the next Acquire succeed.
	Release(ctx context.Context, key string) error
}

// Guard implements Idempotency on redis SETNX.
type Guard struct {
	client *redis.Client
	prefix string
}

func New(client *redis.Client) *Guard {
	return &Guard{
		client: client,
		prefix: "idempotency:",
	}
}

func (g *Guard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return g.client.SetNX(ctx, g.prefix+key, "1", ttl).Result()
}

func (g *Guard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, g.prefix+key).Err()
}
