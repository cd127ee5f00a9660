package db

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iamroi/otpbroker/internal/pkg/goerror"
	"github.com/iamroi/otpbroker/internal/pkg/instrument"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const accountSchema = `
	CREATE TABLE accounts (
		id BIGINT PRIMARY KEY,
		identifier TEXT NOT NULL UNIQUE,
		verified BOOLEAN NOT NULL DEFAULT FALSE,
		verified_at TIMESTAMPTZ,
		metadata JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`

func startPostgres(t *testing.T, schema string) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("otpbroker"),
		tcpostgres.WithUsername("otpbroker"),
		tcpostgres.WithPassword("otpbroker"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	return pool
}

type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

type seqID struct {
	next atomic.Int64
}

func (s *seqID) Generate() int64 {
	return s.next.Add(1)
}

func TestValidateTableName(t *testing.T) {
	valid := []string{"accounts", "otp_tokens", "_shadow", "t2"}
	for _, name := range valid {
		if err := ValidateTableName(name); err != nil {
			t.Fatalf("expected %q to be valid: %v", name, err)
		}
	}

	invalid := []string{"", "Accounts", "2fast", "acc ounts", `acc"ounts`, "acc;drop"}
	for _, name := range invalid {
		if err := ValidateTableName(name); err == nil {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}

func TestAccountStore(t *testing.T) {
	pool := startPostgres(t, accountSchema)
	clk := &stubClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	store := NewAccountStore(pool, "accounts", &seqID{}, clk, instrument.NewNoop())

	t.Run("ResolveCreatesOnFirstUse", func(t *testing.T) {
		// Act
		account, err := store.Resolve(context.Background(), "first@b.com")

		// Assert
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if account.ID == 0 || account.Identifier != "first@b.com" {
			t.Fatalf("unexpected account %+v", account)
		}
		if account.Verified || account.VerifiedAt != nil {
			t.Fatalf("expected a fresh unverified account, got %+v", account)
		}
		if !account.CreatedAt.Equal(clk.now) {
			t.Fatalf("expected created_at %v, got %v", clk.now, account.CreatedAt)
		}
	})

	t.Run("ResolveIsIdempotent", func(t *testing.T) {
		// Arrange
		first, err := store.Resolve(context.Background(), "repeat@b.com")
		if err != nil {
			t.Fatalf("first resolve: %v", err)
		}

		// Act
		second, err := store.Resolve(context.Background(), "repeat@b.com")

		// Assert
		if err != nil {
			t.Fatalf("second resolve: %v", err)
		}
		if first.ID != second.ID {
			t.Fatalf("expected one account per identifier, got ids %d and %d", first.ID, second.ID)
		}
	})

	t.Run("ConcurrentResolveYieldsOneAccount", func(t *testing.T) {
		// Arrange
		const workers = 8
		ids := make([]int64, workers)
		errs := make([]error, workers)

		// Act
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				account, err := store.Resolve(context.Background(), "race@b.com")
				if err != nil {
					errs[i] = err
					return
				}
				ids[i] = account.ID
			}(i)
		}
		wg.Wait()

		// Assert
		for i := 0; i < workers; i++ {
			if errs[i] != nil {
				t.Fatalf("resolve %d: %v", i, errs[i])
			}
			if ids[i] != ids[0] {
				t.Fatalf("expected every resolve to return the same account, got ids %v", ids)
			}
		}
	})

	t.Run("MarkVerified", func(t *testing.T) {
		// Arrange
		account, err := store.Resolve(context.Background(), "verify@b.com")
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}

		// Act
		verified, err := store.MarkVerified(context.Background(), account.ID)

		// Assert
		if err != nil {
			t.Fatalf("mark verified: %v", err)
		}
		if !verified.Verified || verified.VerifiedAt == nil {
			t.Fatalf("expected verified account, got %+v", verified)
		}
		if !verified.VerifiedAt.Equal(clk.now) {
			t.Fatalf("expected verified_at %v, got %v", clk.now, verified.VerifiedAt)
		}
	})

	t.Run("MarkVerifiedKeepsFirstTimestamp", func(t *testing.T) {
		// Arrange
		account, err := store.Resolve(context.Background(), "again@b.com")
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		first, err := store.MarkVerified(context.Background(), account.ID)
		if err != nil {
			t.Fatalf("first mark: %v", err)
		}

		clk.now = clk.now.Add(time.Hour)

		// Act
		second, err := store.MarkVerified(context.Background(), account.ID)

		// Assert
		if err != nil {
			t.Fatalf("second mark: %v", err)
		}
		if !second.VerifiedAt.Equal(*first.VerifiedAt) {
			t.Fatalf("expected first verification timestamp preserved, got %v", second.VerifiedAt)
		}
		if !second.UpdatedAt.After(first.UpdatedAt) {
			t.Fatalf("expected updated_at to advance")
		}
	})

	t.Run("MarkVerifiedUnknownID", func(t *testing.T) {
		// Act
		_, err := store.MarkVerified(context.Background(), 987654)

		// Assert
		if !errors.Is(err, goerror.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
