package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iamroi/otpbroker/internal/otp/entity"
	"github.com/iamroi/otpbroker/internal/pkg/goerror"
	"github.com/iamroi/otpbroker/internal/pkg/instrument"
	"github.com/iamroi/otpbroker/internal/pkg/validator"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeTokenStore struct {
	mu     sync.Mutex
	tokens map[string]entity.Token
	putErr error
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: map[string]entity.Token{}}
}

func (s *fakeTokenStore) Put(_ context.Context, identifier string, token entity.Token, _ time.Duration) error {
	if s.putErr != nil {
		return s.putErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[identifier] = token

	return nil
}

func (s *fakeTokenStore) Get(_ context.Context, identifier string) (*entity.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, ok := s.tokens[identifier]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	return &tok, nil
}

func (s *fakeTokenStore) Invalidate(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, identifier)

	return nil
}

type fakeAccountStore struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[string]*entity.Account
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{nextID: 1, accounts: map[string]*entity.Account{}}
}

func (s *fakeAccountStore) Resolve(_ context.Context, identifier string) (*entity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acc, ok := s.accounts[identifier]; ok {
		cp := *acc
		return &cp, nil
	}

	acc := &entity.Account{ID: s.nextID, Identifier: identifier}
	s.nextID++
	s.accounts[identifier] = acc

	cp := *acc
	return &cp, nil
}

func (s *fakeAccountStore) MarkVerified(_ context.Context, id int64) (*entity.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acc := range s.accounts {
		if acc.ID == id {
			now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
			acc.Verified = true
			acc.VerifiedAt = &now

			cp := *acc
			return &cp, nil
		}
	}

	return nil, goerror.ErrNotFound
}

type dispatchCall struct {
	identifier string
	token      string
	channels   []string
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
	err   error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, account *entity.Account, token string, channels []string) error {
	d.mu.Lock()
	d.calls = append(d.calls, dispatchCall{identifier: account.Identifier, token: token, channels: channels})
	d.mu.Unlock()

	return d.err
}

type fakeGenerator struct {
	codes []string
	next  int
}

func (g *fakeGenerator) Generate() (string, error) {
	if g.next >= len(g.codes) {
		return "", errors.New("generator exhausted")
	}

	code := g.codes[g.next]
	g.next++

	return code, nil
}

type fakeGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
	err  error
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{held: map[string]struct{}{}}
}

func (g *fakeGuard) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	if g.err != nil {
		return false, g.err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.held[key]; ok {
		return false, nil
	}
	g.held[key] = struct{}{}

	return true, nil
}

type harness struct {
	uc       *Usecase
	tokens   *fakeTokenStore
	accounts *fakeAccountStore
	dispatch *fakeDispatcher
	guard    *fakeGuard
	clock    *fakeClock
}

func newHarness(t *testing.T, opts ...func(*Dependency)) *harness {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	tokens := newFakeTokenStore()
	accounts := newFakeAccountStore()
	dispatch := &fakeDispatcher{}
	guard := newFakeGuard()
	clk := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}

	dep := Dependency{
		Providers: map[string]Provider{
			"users": {Name: "users", Accounts: accounts, Tokens: tokens},
		},
		DefaultProvider: "users",
		Generator:       &fakeGenerator{codes: []string{"11111", "22222", "33333"}},
		Dispatcher:      dispatch,
		Guard:           guard,
		Cooldown:        30 * time.Second,
		TokenTTL:        10 * time.Minute,
		Validator:       v,
		Clock:           clk,
		Instrument:      instrument.NewNoop(),
	}
	for _, opt := range opts {
		opt(&dep)
	}

	return &harness{
		uc:       New(dep),
		tokens:   tokens,
		accounts: accounts,
		dispatch: dispatch,
		guard:    guard,
		clock:    clk,
	}
}

func assertCode(t *testing.T, err error, want goerror.Code) {
	t.Helper()

	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *goerror.Error, got %T: %v", err, err)
	}
	if gerr.Code() != want {
		t.Fatalf("expected code %s, got %s", want, gerr.Code())
	}
}
