package store

import (
	"fmt"
	"strings"

	"github.com/iamroi/otpbroker/internal/pkg/clock"
	"github.com/iamroi/otpbroker/internal/pkg/instrument"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// FactoryOptions groups the resources a token store backend may need.
type FactoryOptions struct {
	// Cache is the redis client for the cache driver.
	Cache *redis.Client
	// DBConn is the postgres pool for the database driver.
	DBConn *pgxpool.Pool
	// Table is the token table name for the database driver.
	Table string
	// Clock supplies the current time for lazy expiry checks.
	Clock clock.Clocker
	// Instrument provides tracing for outbound calls.
	Instrument instrument.Instrumentation
}

// NewFromDriver constructs a provider-scoped TokenStore by driver name.
func NewFromDriver(driver, provider string, opts FactoryOptions) (TokenStore, error) {
	switch strings.TrimSpace(driver) {
	case DriverCache:
		return NewCache(opts.Cache, provider, opts.Instrument), nil
	case DriverDatabase:
		return NewDatabase(opts.DBConn, opts.Table, provider, opts.Clock, opts.Instrument), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
