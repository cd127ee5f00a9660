package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestGuard(t *testing.T) (*Guard, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return New(client), mr
}

func TestGuardAcquire(t *testing.T) {
	t.Run("FirstAcquireWins", func(t *testing.T) {
		// Arrange
		guard, _ := newTestGuard(t)

		// Act
		ok, err := guard.Acquire(context.Background(), "send:users:a@b.com", time.Minute)

		// Assert
		if err != nil {
			t.Fatalf("acquire: %v", err)
		}
		if !ok {
			t.Fatalf("expected first acquire to win")
		}
	})

	t.Run("SecondAcquireLosesUntilTTL", func(t *testing.T) {
		// Arrange
		guard, mr := newTestGuard(t)
		if _, err := guard.Acquire(context.Background(), "k", time.Minute); err != nil {
			t.Fatalf("acquire: %v", err)
		}

		// Act
		ok, err := guard.Acquire(context.Background(), "k", time.Minute)

		// Assert
		if err != nil {
			t.Fatalf("acquire: %v", err)
		}
		if ok {
			t.Fatalf("expected second acquire to lose")
		}

		mr.FastForward(2 * time.Minute)

		ok, err = guard.Acquire(context.Background(), "k", time.Minute)
		if err != nil {
			t.Fatalf("acquire after ttl: %v", err)
		}
		if !ok {
			t.Fatalf("expected acquire to win after window lapsed")
		}
	})

	t.Run("ReleaseDropsWindow", func(t *testing.T) {
		// Arrange
		guard, _ := newTestGuard(t)
		if _, err := guard.Acquire(context.Background(), "k", time.Minute); err != nil {
			t.Fatalf("acquire: %v", err)
		}

		// Act
		if err := guard.Release(context.Background(), "k"); err != nil {
			t.Fatalf("release: %v", err)
		}

		// Assert
		ok, err := guard.Acquire(context.Background(), "k", time.Minute)
		if err != nil {
			t.Fatalf("acquire: %v", err)
		}
		if !ok {
			t.Fatalf("expected acquire to win after release")
		}
	})
}
