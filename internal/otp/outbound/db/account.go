package db

import (
	"context"
	"fmt"

	"github.com/iamroi/otpbroker/internal/otp/entity"
	"github.com/iamroi/otpbroker/internal/pkg/valueobject"
	"github.com/jackc/pgx/v5/pgtype"
)

const accountColumns = "id, identifier, verified, verified_at, metadata, created_at, updated_at"

// Resolve finds the account for the identifier, creating a minimal record
// when none exists. The insert-or-fetch is a single upsert statement, so
// concurrent calls for a new identifier settle on exactly one row.
func (s *AccountStore) Resolve(ctx context.Context, identifier string) (_ *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "Resolve")
	defer func() { s.endSpan(span, err) }()

	// The no-op DO UPDATE makes RETURNING yield the existing row on conflict.
	query := fmt.Sprintf(`
		INSERT INTO %s (id, identifier, verified, metadata, created_at, updated_at)
		VALUES ($1, $2, FALSE, '{}', $3, $3)
		ON CONFLICT (identifier) DO UPDATE SET identifier = EXCLUDED.identifier
		RETURNING `+accountColumns, s.table)

	now := pgtype.Timestamptz{Valid: true, Time: s.clock.Now()}

	account, err := s.scanAccount(s.conn.QueryRow(ctx, query, s.uid.Generate(), identifier, now))
	if err != nil {
		return nil, s.mapError(err)
	}

	return account, nil
}

// MarkVerified flips the account's verification flag. Idempotent: the first
// verification timestamp is preserved on repeat calls.
func (s *AccountStore) MarkVerified(ctx context.Context, id int64) (_ *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "MarkVerified")
	defer func() { s.endSpan(span, err) }()

	query := fmt.Sprintf(`
		UPDATE %s
		SET verified = TRUE,
			verified_at = COALESCE(verified_at, $2),
			updated_at = $2
		WHERE id = $1
		RETURNING `+accountColumns, s.table)

	now := pgtype.Timestamptz{Valid: true, Time: s.clock.Now()}

	account, err := s.scanAccount(s.conn.QueryRow(ctx, query, id, now))
	if err != nil {
		return nil, s.mapError(err)
	}

	return account, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *AccountStore) scanAccount(row rowScanner) (*entity.Account, error) {
	var account entity.Account
	var verifiedAt pgtype.Timestamptz
	var metadata valueobject.JSONMap
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(
		&account.ID,
		&account.Identifier,
		&account.Verified,
		&verifiedAt,
		&metadata,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if verifiedAt.Valid {
		account.VerifiedAt = &verifiedAt.Time
	}
	account.Metadata = metadata
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time

	return &account, nil
}
