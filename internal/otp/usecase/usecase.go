package usecase

import (
	"context"
	"time"

	"github.com/iamroi/otpbroker/internal/otp/entity"
	"github.com/iamroi/otpbroker/internal/pkg/clock"
	"github.com/iamroi/otpbroker/internal/pkg/instrument"
	"github.com/iamroi/otpbroker/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type tokenStore interface {
	Put(ctx context.Context, identifier string, token entity.Token, ttl time.Duration) error
	Get(ctx context.Context, identifier string) (*entity.Token, error)
	Invalidate(ctx context.Context, identifier string) error
}

type accountStore interface {
	Resolve(ctx context.Context, identifier string) (*entity.Account, error)
	MarkVerified(ctx context.Context, id int64) (*entity.Account, error)
}

type dispatcher interface {
	Dispatch(ctx context.Context, account *entity.Account, token string, channels []string) error
}

type generator interface {
	Generate() (string, error)
}

type sendGuard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Provider bundles the account repository and token store a named provider
// operates against. Every broker call runs against exactly one provider.
type Provider struct {
	Name     string
	Accounts accountStore
	Tokens   tokenStore
}

// Usecase orchestrates sending and validating one-time codes.
//
// It performs no locking of its own: per-identifier atomicity is delegated to
// the token store's replace semantics and the account repository's upsert, so
// concurrent sends for one identifier settle on whichever Put commits last.
type Usecase struct {
	providers       map[string]Provider
	defaultProvider string
	gen             generator
	dispatch        dispatcher
	guard           sendGuard
	cooldown        time.Duration
	tokenTTL        time.Duration
	validator       validator.Validator
	clock           clock.Clocker
	ins             instrument.Instrumentation
}

// Dependency lists what the Usecase needs.
type Dependency struct {
	Providers       map[string]Provider
	DefaultProvider string
	Generator       generator
	Dispatcher      dispatcher
	Guard           sendGuard
	Cooldown        time.Duration
	TokenTTL        time.Duration
	Validator       validator.Validator
	Clock           clock.Clocker
	Instrument      instrument.Instrumentation
}

// New constructs the Usecase.
func New(dep Dependency) *Usecase {
	return &Usecase{
		providers:       dep.Providers,
		defaultProvider: dep.DefaultProvider,
		gen:             dep.Generator,
		dispatch:        dep.Dispatcher,
		guard:           dep.Guard,
		cooldown:        dep.Cooldown,
		tokenTTL:        dep.TokenTTL,
		validator:       dep.Validator,
		clock:           dep.Clock,
		ins:             dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.usecase").Start(ctx, name)
}

// provider resolves a named provider; the empty name selects the default.
func (s *Usecase) provider(name string) (Provider, error) {
	if name == "" {
		name = s.defaultProvider
	}

	p, ok := s.providers[name]
	if !ok {
		return Provider{}, entity.ErrUnknownProvider
	}

	return p, nil
}
