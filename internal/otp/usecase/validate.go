package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/iamroi/otpbroker/internal/otp/entity"
	"github.com/iamroi/otpbroker/internal/pkg/goerror"
)

type ValidateInput struct {
	Identifier string `validate:"required,identifier,max=64"`
	Token      string `validate:"required"`
	Provider   string
}

type ValidateOutput struct {
	Account entity.Account
}

// Validate checks a submitted code against the active one for the identifier.
// A match consumes the code and marks the account verified; a mismatch leaves
// the stored code intact so the caller can retry until it expires.
func (s *Usecase) Validate(ctx context.Context, in ValidateInput) (*ValidateOutput, error) {
	ctx, span := s.startSpan(ctx, "Validate")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	p, err := s.provider(in.Provider)
	if err != nil {
		slog.WarnContext(ctx, "validate requested for unregistered provider", "provider", in.Provider)
		return nil, goerror.NewBusinessWrap(err, "unknown account provider", goerror.CodeNotFound)
	}

	tok, err := p.Tokens.Get(ctx, in.Identifier)
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusinessWrap(&entity.InvalidTokenError{Reason: entity.ReasonMissingOrExpired},
				"verification code is invalid or has expired", goerror.CodeUnauthorized)
		}

		slog.ErrorContext(ctx, "failed to load verification code", "provider", p.Name, "identifier", in.Identifier, "error", err)
		return nil, goerror.NewServer(err)
	}

	// Stores prune expired codes on read, but a clock shared with the caller
	// is authoritative here.
	if tok.Expired(s.clock.Now()) {
		return nil, goerror.NewBusinessWrap(&entity.InvalidTokenError{Reason: entity.ReasonMissingOrExpired},
			"verification code is invalid or has expired", goerror.CodeUnauthorized)
	}

	if subtle.ConstantTimeCompare([]byte(tok.Value), []byte(in.Token)) != 1 {
		return nil, goerror.NewBusinessWrap(&entity.InvalidTokenError{Reason: entity.ReasonMismatch},
			"verification code does not match", goerror.CodeUnauthorized)
	}

	if err := p.Tokens.Invalidate(ctx, in.Identifier); err != nil {
		slog.ErrorContext(ctx, "failed to consume verification code", "provider", p.Name, "identifier", in.Identifier, "error", err)
		return nil, goerror.NewServer(err)
	}

	account, err := p.Accounts.Resolve(ctx, in.Identifier)
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve account", "provider", p.Name, "identifier", in.Identifier, "error", err)
		return nil, goerror.NewServer(err)
	}

	verified, err := p.Accounts.MarkVerified(ctx, account.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to mark account verified", "provider", p.Name, "account_id", account.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ValidateOutput{Account: *verified}, nil
}
