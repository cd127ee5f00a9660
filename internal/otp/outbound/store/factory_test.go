package store

import (
	"errors"
	"testing"

	"github.com/iamroi/otpbroker/internal/pkg/clock"
	"github.com/iamroi/otpbroker/internal/pkg/instrument"
)

func TestNewFromDriver(t *testing.T) {
	opts := FactoryOptions{
		Table:      "otp_tokens",
		Clock:      clock.New(),
		Instrument: instrument.NewNoop(),
	}

	t.Run("Cache", func(t *testing.T) {
		st, err := NewFromDriver(DriverCache, "users", opts)
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		if _, ok := st.(*Cache); !ok {
			t.Fatalf("expected *Cache, got %T", st)
		}
	})

	t.Run("Database", func(t *testing.T) {
		st, err := NewFromDriver(" database ", "users", opts)
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		if _, ok := st.(*Database); !ok {
			t.Fatalf("expected *Database, got %T", st)
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := NewFromDriver("memcached", "users", opts)
		if !errors.Is(err, ErrUnknownDriver) {
			t.Fatalf("expected ErrUnknownDriver, got %v", err)
		}
	})
}
