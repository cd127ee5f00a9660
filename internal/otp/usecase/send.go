package usecase

import (
	"context"
	"log/slog"

	"github.com/iamroi/otpbroker/internal/otp/entity"
	"github.com/iamroi/otpbroker/internal/pkg/goerror"
)

type SendInput struct {
	Identifier string `validate:"required,identifier,max=64"`
	Provider   string
	Channels   []string
}

type SendOutput struct {
	Account entity.Account
}

// Send resolves (or lazily creates) the account for the identifier, stores a
// fresh one-time code, and dispatches it through the requested channels.
//
// Storing the new code implicitly supersedes any prior active code for the
// identifier. A delivery failure is reported to the caller but the stored
// code is not rolled back: the caller may retry validation with a manually
// communicated code, or send again to regenerate.
func (s *Usecase) Send(ctx context.Context, in SendInput) (*SendOutput, error) {
	ctx, span := s.startSpan(ctx, "Send")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	p, err := s.provider(in.Provider)
	if err != nil {
		slog.WarnContext(ctx, "send requested for unregistered provider", "provider", in.Provider)
		return nil, goerror.NewBusinessWrap(err, "unknown account provider", goerror.CodeNotFound)
	}

	if s.guard != nil && s.cooldown > 0 {
		acquired, err := s.guard.Acquire(ctx, "send:"+p.Name+":"+in.Identifier, s.cooldown)
		if err != nil {
			slog.ErrorContext(ctx, "failed to check send cool-down", "identifier", in.Identifier, "error", err)
			return nil, goerror.NewServer(err)
		}
		if !acquired {
			return nil, goerror.NewBusiness("a verification code was sent recently, try again later", goerror.CodeTooManyRequest)
		}
	}

	account, err := p.Accounts.Resolve(ctx, in.Identifier)
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve account", "provider", p.Name, "identifier", in.Identifier, "error", err)
		return nil, goerror.NewServer(err)
	}

	code, err := s.gen.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate verification code", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	token := entity.Token{
		Identifier: in.Identifier,
		Value:      code,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.tokenTTL),
	}

	if err := p.Tokens.Put(ctx, in.Identifier, token, s.tokenTTL); err != nil {
		slog.ErrorContext(ctx, "failed to store verification code", "provider", p.Name, "identifier", in.Identifier, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.dispatch.Dispatch(ctx, account, code, in.Channels); err != nil {
		// The stored code stays active; a re-send supersedes it.
		slog.ErrorContext(ctx, "failed to dispatch verification code", "provider", p.Name, "identifier", in.Identifier, "error", err)
		return nil, goerror.NewServerWrap(err, "Failed to deliver verification code")
	}

	return &SendOutput{Account: *account}, nil
}
