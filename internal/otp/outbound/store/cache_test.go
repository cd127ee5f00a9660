package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/iamroi/otpbroker/internal/otp/entity"
	"github.com/iamroi/otpbroker/internal/pkg/goerror"
	"github.com/iamroi/otpbroker/internal/pkg/instrument"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T, provider string) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCache(client, provider, instrument.NewNoop()), mr
}

func testToken(identifier, value string) entity.Token {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	return entity.Token{
		Identifier: identifier,
		Value:      value,
		CreatedAt:  now,
		ExpiresAt:  now.Add(10 * time.Minute),
	}
}

func TestCache(t *testing.T) {
	t.Run("PutThenGet", func(t *testing.T) {
		// Arrange
		cache, _ := newTestCache(t, "users")
		tok := testToken("a@b.com", "12345")

		// Act
		if err := cache.Put(context.Background(), "a@b.com", tok, 10*time.Minute); err != nil {
			t.Fatalf("put: %v", err)
		}
		got, err := cache.Get(context.Background(), "a@b.com")

		// Assert
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Value != "12345" || got.Identifier != "a@b.com" {
			t.Fatalf("unexpected token %+v", got)
		}
		if !got.ExpiresAt.Equal(tok.ExpiresAt) {
			t.Fatalf("expected expiry %v, got %v", tok.ExpiresAt, got.ExpiresAt)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		// Arrange
		cache, _ := newTestCache(t, "users")

		// Act
		_, err := cache.Get(context.Background(), "a@b.com")

		// Assert
		if !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("PutReplacesActiveToken", func(t *testing.T) {
		// Arrange
		cache, _ := newTestCache(t, "users")
		if err := cache.Put(context.Background(), "a@b.com", testToken("a@b.com", "11111"), 10*time.Minute); err != nil {
			t.Fatalf("first put: %v", err)
		}

		// Act
		if err := cache.Put(context.Background(), "a@b.com", testToken("a@b.com", "22222"), 10*time.Minute); err != nil {
			t.Fatalf("second put: %v", err)
		}

		// Assert
		got, err := cache.Get(context.Background(), "a@b.com")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Value != "22222" {
			t.Fatalf("expected last write to win, got %q", got.Value)
		}
	})

	t.Run("ExpiryEnforcedByTTL", func(t *testing.T) {
		// Arrange
		cache, mr := newTestCache(t, "users")
		if err := cache.Put(context.Background(), "a@b.com", testToken("a@b.com", "12345"), time.Minute); err != nil {
			t.Fatalf("put: %v", err)
		}

		// Act
		mr.FastForward(2 * time.Minute)
		_, err := cache.Get(context.Background(), "a@b.com")

		// Assert
		if !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after ttl, got %v", err)
		}
	})

	t.Run("InvalidateConsumes", func(t *testing.T) {
		// Arrange
		cache, _ := newTestCache(t, "users")
		if err := cache.Put(context.Background(), "a@b.com", testToken("a@b.com", "12345"), 10*time.Minute); err != nil {
			t.Fatalf("put: %v", err)
		}

		// Act
		if err := cache.Invalidate(context.Background(), "a@b.com"); err != nil {
			t.Fatalf("invalidate: %v", err)
		}

		// Assert
		if _, err := cache.Get(context.Background(), "a@b.com"); !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after invalidate, got %v", err)
		}

		// Invalidating again is a no-op, not an error.
		if err := cache.Invalidate(context.Background(), "a@b.com"); err != nil {
			t.Fatalf("second invalidate: %v", err)
		}
	})

	t.Run("ProvidersAreIsolated", func(t *testing.T) {
		// Arrange
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })

		users := NewCache(client, "users", instrument.NewNoop())
		admins := NewCache(client, "admins", instrument.NewNoop())

		// Act
		if err := users.Put(context.Background(), "a@b.com", testToken("a@b.com", "11111"), 10*time.Minute); err != nil {
			t.Fatalf("put users: %v", err)
		}
		if err := admins.Put(context.Background(), "a@b.com", testToken("a@b.com", "22222"), 10*time.Minute); err != nil {
			t.Fatalf("put admins: %v", err)
		}

		// Assert
		got, err := users.Get(context.Background(), "a@b.com")
		if err != nil {
			t.Fatalf("get users: %v", err)
		}
		if got.Value != "11111" {
			t.Fatalf("expected users token untouched, got %q", got.Value)
		}

		if err := users.Invalidate(context.Background(), "a@b.com"); err != nil {
			t.Fatalf("invalidate users: %v", err)
		}
		if _, err := admins.Get(context.Background(), "a@b.com"); err != nil {
			t.Fatalf("expected admins token to survive, got %v", err)
		}
	})
}
