package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iamroi/otpbroker/internal/otp/entity"
	"github.com/iamroi/otpbroker/internal/pkg/clock"
	"github.com/iamroi/otpbroker/internal/pkg/goerror"
	"github.com/iamroi/otpbroker/internal/pkg/instrument"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Database is a TokenStore backed by a postgres table.
//
// Each (provider, identifier) pair holds at most one row; Put upserts the row
// so the last committed write fully replaces the prior token. Postgres has no
// implicit TTL eviction, so Get checks the expiry itself and treats an expired
// row as absent without deleting it. Cleanup of expired rows is a retention
// concern, not a correctness one.
type Database struct {
	conn     *pgxpool.Pool
	table    string
	provider string
	clock    clock.Clocker
	ins      instrument.Instrumentation
}

// NewDatabase constructs a postgres-backed token store scoped to a provider.
//
// The table name must already be validated as a safe SQL identifier by the
// caller; it is interpolated, not bound.
func NewDatabase(
	conn *pgxpool.Pool,
	table, provider string,
	clk clock.Clocker,
	ins instrument.Instrumentation,
) *Database {
	return &Database{
		conn:     conn,
		table:    pgx.Identifier{table}.Sanitize(),
		provider: provider,
		clock:    clk,
		ins:      ins,
	}
}

func (d *Database) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return d.ins.Tracer("otp.outbound.store.database").Start(ctx, name)
}

func (d *Database) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Put stores or overwrites the active token for the identifier.
func (d *Database) Put(ctx context.Context, identifier string, token entity.Token, _ time.Duration) (err error) {
	ctx, span := d.startSpan(ctx, "Put")
	defer func() { d.endSpan(span, err) }()

	query := fmt.Sprintf(`
		INSERT INTO %s (provider, identifier, token, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider, identifier) DO UPDATE
		SET token = EXCLUDED.token,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at`, d.table)

	_, err = d.conn.Exec(ctx, query,
		d.provider,
		identifier,
		token.Value,
		pgtype.Timestamptz{Valid: true, Time: token.CreatedAt},
		pgtype.Timestamptz{Valid: true, Time: token.ExpiresAt},
	)
	return err
}

// Get returns the active token. A missing row and an expired row are both
// reported as goerror.ErrNotFound; the expired row is left for lazy cleanup.
func (d *Database) Get(ctx context.Context, identifier string) (_ *entity.Token, err error) {
	ctx, span := d.startSpan(ctx, "Get")
	defer func() { d.endSpan(span, err) }()

	query := fmt.Sprintf(`
		SELECT token, created_at, expires_at
		FROM %s
		WHERE provider = $1 AND identifier = $2`, d.table)

	var value string
	var createdAt, expiresAt pgtype.Timestamptz

	err = d.conn.QueryRow(ctx, query, d.provider, identifier).Scan(&value, &createdAt, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	token := entity.Token{
		Identifier: identifier,
		Value:      value,
		CreatedAt:  createdAt.Time,
		ExpiresAt:  expiresAt.Time,
	}
	if token.Expired(d.clock.Now()) {
		return nil, goerror.ErrNotFound
	}

	return &token, nil
}

// Invalidate consumes the current token by deleting its row.
func (d *Database) Invalidate(ctx context.Context, identifier string) (err error) {
	ctx, span := d.startSpan(ctx, "Invalidate")
	defer func() { d.endSpan(span, err) }()

	query := fmt.Sprintf(`DELETE FROM %s WHERE provider = $1 AND identifier = $2`, d.table)

	_, err = d.conn.Exec(ctx, query, d.provider, identifier)
	return err
}
