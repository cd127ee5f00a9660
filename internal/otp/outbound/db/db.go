// Package db implements account resolution on postgres.
//
// Each provider binds its own account table; the repository is constructed
// once per provider with that table name.
package db

import (
	"context"
	"errors"
	"regexp"

	"github.com/iamroi/otpbroker/internal/pkg/clock"
	"github.com/iamroi/otpbroker/internal/pkg/goerror"
	"github.com/iamroi/otpbroker/internal/pkg/instrument"
	"github.com/iamroi/otpbroker/internal/pkg/uid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrUnsafeTableName indicates a table name that is not a plain SQL identifier.
var ErrUnsafeTableName = errors.New("db: table name is not a valid identifier")

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidateTableName rejects configured table names that cannot be safely
// interpolated into SQL. Table names come from configuration, never from
// request input, but the binding is still validated once at startup.
func ValidateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return ErrUnsafeTableName
	}
	return nil
}

// AccountStore is a provider-scoped account repository backed by pgx.
type AccountStore struct {
	conn  *pgxpool.Pool
	table string
	uid   uid.NumberID
	clock clock.Clocker
	ins   instrument.Instrumentation
}

// NewAccountStore constructs an AccountStore for one provider's account table.
// The table name must pass ValidateTableName.
func NewAccountStore(
	conn *pgxpool.Pool,
	table string,
	numberID uid.NumberID,
	clk clock.Clocker,
	ins instrument.Instrumentation,
) *AccountStore {
	return &AccountStore{
		conn:  conn,
		table: pgx.Identifier{table}.Sanitize(),
		uid:   numberID,
		clock: clk,
		ins:   ins,
	}
}

func (s *AccountStore) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *AccountStore) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.outbound.db").Start(ctx, name)
}

func (s *AccountStore) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
