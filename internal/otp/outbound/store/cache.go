package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/iamroi/otpbroker/internal/otp/entity"
	"github.com/iamroi/otpbroker/internal/pkg/goerror"
	"github.com/iamroi/otpbroker/internal/pkg/instrument"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const cacheKeyPrefix = "otp:token:"

type cacheEntry struct {
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Cache is a TokenStore backed by a TTL-capable redis key/value cache.
//
// Put sets the key with a TTL, so redis itself enforces expiry visibility and
// a concurrent Put for the same identifier is a plain last-write-wins SET.
// Tokens do not survive a cache restart; use the database store when that
// matters.
type Cache struct {
	client   *redis.Client
	provider string
	ins      instrument.Instrumentation
}

// NewCache constructs a redis-backed token store scoped to a provider.
func NewCache(client *redis.Client, provider string, ins instrument.Instrumentation) *Cache {
	return &Cache{
		client:   client,
		provider: provider,
		ins:      ins,
	}
}

func (c *Cache) key(identifier string) string {
	return cacheKeyPrefix + c.provider + ":" + identifier
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("otp.outbound.store.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Put stores or overwrites the active token for the identifier.
func (c *Cache) Put(ctx context.Context, identifier string, token entity.Token, ttl time.Duration) (err error) {
	ctx, span := c.startSpan(ctx, "Put")
	defer func() { c.endSpan(span, err) }()

	data, err := json.Marshal(cacheEntry{
		Value:     token.Value,
		CreatedAt: token.CreatedAt,
		ExpiresAt: token.ExpiresAt,
	})
	if err != nil {
		return err
	}

	err = c.client.Set(ctx, c.key(identifier), data, ttl).Err()
	return err
}

// Get returns the active token, or goerror.ErrNotFound when redis has evicted
// or never held one.
func (c *Cache) Get(ctx context.Context, identifier string) (_ *entity.Token, err error) {
	ctx, span := c.startSpan(ctx, "Get")
	defer func() { c.endSpan(span, err) }()

	data, err := c.client.Get(ctx, c.key(identifier)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var entry cacheEntry
	if err = json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}

	return &entity.Token{
		Identifier: identifier,
		Value:      entry.Value,
		CreatedAt:  entry.CreatedAt,
		ExpiresAt:  entry.ExpiresAt,
	}, nil
}

// Invalidate consumes the current token by deleting the key.
func (c *Cache) Invalidate(ctx context.Context, identifier string) (err error) {
	ctx, span := c.startSpan(ctx, "Invalidate")
	defer func() { c.endSpan(span, err) }()

	err = c.client.Del(ctx, c.key(identifier)).Err()
	return err
}
