// Package channel dispatches rendered one-time codes to delivery channels.
package channel

import (
	"context"
	"errors"
	"log/slog"

	"github.com/iamroi/otpbroker/internal/otp/entity"
	"github.com/iamroi/otpbroker/internal/pkg/instrument"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/codes"
)

// Channel is the minimal capability a delivery channel exposes: accept a
// payload, attempt delivery, report the outcome.
type Channel interface {
	// Name is the registration name used to select the channel.
	Name() string
	// Send attempts delivery of the payload.
	Send(ctx context.Context, payload entity.DeliveryPayload) error
}

// destinationResolver lets a channel derive its own destination address from
// the account (for example, mail prefers the metadata email address).
type destinationResolver interface {
	Destination(account *entity.Account) string
}

// ErrDuplicateChannel indicates two channels registered under one name.
var ErrDuplicateChannel = errors.New("channel: duplicate channel name")

// Dispatcher fans a token out to an ordered list of registered channels.
//
// Channels are registered once at configuration time. Dispatch fails fast on
// the first channel error and does not roll back earlier deliveries; the
// caller's recourse is an idempotent re-send, never an automatic retry here.
type Dispatcher struct {
	channels map[string]Channel
	defaults []string
	builder  Builder
	ins      instrument.Instrumentation
}

// NewDispatcher builds a Dispatcher with the given default channel order and
// message builder. A nil builder falls back to the built-in template.
func NewDispatcher(defaults []string, builder Builder, ins instrument.Instrumentation, channels ...Channel) (*Dispatcher, error) {
	if builder == nil {
		builder = DefaultBuilder("", "")
	}

	registry := make(map[string]Channel, len(channels))
	for _, ch := range channels {
		if _, exists := registry[ch.Name()]; exists {
			return nil, ErrDuplicateChannel
		}
		registry[ch.Name()] = ch
	}

	return &Dispatcher{
		channels: registry,
		defaults: defaults,
		builder:  builder,
		ins:      ins,
	}, nil
}

// Dispatch renders one payload per channel and delivers them in order. An
// empty names list falls back to the configured default order.
func (d *Dispatcher) Dispatch(ctx context.Context, account *entity.Account, token string, names []string) error {
	ctx, span := d.ins.Tracer("otp.outbound.channel").Start(ctx, "Dispatch")
	defer span.End()

	if len(names) == 0 {
		names = d.defaults
	}

	for _, name := range lo.Uniq(names) {
		ch, ok := d.channels[name]
		if !ok {
			return &entity.DeliveryError{Channel: name, Err: entity.ErrUnknownChannel}
		}

		subject, body := d.builder(account.Identifier, token)
		payload := entity.DeliveryPayload{
			Identifier:  account.Identifier,
			Destination: account.Identifier,
			Token:       token,
			Subject:     subject,
			Message:     body,
		}
		if resolver, ok := ch.(destinationResolver); ok {
			payload.Destination = resolver.Destination(account)
		}

		if err := ch.Send(ctx, payload); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.ErrorContext(ctx, "channel delivery failed",
				"channel", name, "identifier", account.Identifier, "error", err)

			return &entity.DeliveryError{Channel: name, Err: err}
		}
	}

	return nil
}
