// Package store persists the active one-time token per identifier.
//
// Two interchangeable backends implement the same contract: a redis-backed
// cache store and a postgres-backed durable store. The broker never needs to
// know which one is active; the only visible difference is durability.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/iamroi/otpbroker/internal/otp/entity"
)

// Supported token store drivers.
const (
	// DriverCache selects the redis-backed store.
	DriverCache = "cache"
	// DriverDatabase selects the postgres-backed store.
	DriverDatabase = "database"
)

// ErrUnknownDriver indicates an unsupported token store driver.
var ErrUnknownDriver = errors.New("store: unknown token store driver")

// TokenStore stores and retrieves the active token for an identifier.
//
// Implementations must make Put an atomic full replace for the identifier
// (last write wins) and must report an expired token as absent from Get
// without requiring any background cleanup.
type TokenStore interface {
	// Put stores or overwrites the active token for the identifier.
	Put(ctx context.Context, identifier string, token entity.Token, ttl time.Duration) error

	// Get returns the active token, or goerror.ErrNotFound when none was ever
	// stored, it was consumed, or it is past expiry.
	Get(ctx context.Context, identifier string) (*entity.Token, error)

	// Invalidate consumes the current token, if any. Subsequent Get calls for
	// the identifier report absent until a new Put.
	Invalidate(ctx context.Context, identifier string) error
}
