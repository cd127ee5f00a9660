package channel

import (
	"context"
	"errors"
	"testing"

	"github.com/iamroi/otpbroker/internal/otp/entity"
	"github.com/iamroi/otpbroker/internal/pkg/instrument"
	"github.com/iamroi/otpbroker/internal/pkg/valueobject"
)

type fakeChannel struct {
	name        string
	err         error
	destination string
	payloads    []entity.DeliveryPayload
}

func (c *fakeChannel) Name() string { return c.name }

func (c *fakeChannel) Send(_ context.Context, payload entity.DeliveryPayload) error {
	c.payloads = append(c.payloads, payload)
	return c.err
}

type fakeResolvingChannel struct {
	fakeChannel
}

func (c *fakeResolvingChannel) Destination(account *entity.Account) string {
	return c.destination
}

func testAccount() *entity.Account {
	return &entity.Account{ID: 1, Identifier: "+6281234567890"}
}

func TestNewDispatcher(t *testing.T) {
	t.Run("DuplicateName", func(t *testing.T) {
		// Arrange
		a := &fakeChannel{name: "sms"}
		b := &fakeChannel{name: "sms"}

		// Act
		_, err := NewDispatcher(nil, nil, instrument.NewNoop(), a, b)

		// Assert
		if !errors.Is(err, ErrDuplicateChannel) {
			t.Fatalf("expected ErrDuplicateChannel, got %v", err)
		}
	})
}

func TestDispatch(t *testing.T) {
	t.Run("DefaultOrderWhenNoneRequested", func(t *testing.T) {
		// Arrange
		sms := &fakeChannel{name: "sms"}
		mail := &fakeChannel{name: "mail"}
		d, err := NewDispatcher([]string{"mail", "sms"}, nil, instrument.NewNoop(), sms, mail)
		if err != nil {
			t.Fatalf("new dispatcher: %v", err)
		}

		// Act
		if err := d.Dispatch(context.Background(), testAccount(), "12345", nil); err != nil {
			t.Fatalf("dispatch: %v", err)
		}

		// Assert
		if len(mail.payloads) != 1 || len(sms.payloads) != 1 {
			t.Fatalf("expected both default channels used, got mail=%d sms=%d", len(mail.payloads), len(sms.payloads))
		}
	})

	t.Run("RequestedChannelsOnly", func(t *testing.T) {
		// Arrange
		sms := &fakeChannel{name: "sms"}
		mail := &fakeChannel{name: "mail"}
		d, err := NewDispatcher([]string{"mail"}, nil, instrument.NewNoop(), sms, mail)
		if err != nil {
			t.Fatalf("new dispatcher: %v", err)
		}

		// Act
		if err := d.Dispatch(context.Background(), testAccount(), "12345", []string{"sms"}); err != nil {
			t.Fatalf("dispatch: %v", err)
		}

		// Assert
		if len(sms.payloads) != 1 || len(mail.payloads) != 0 {
			t.Fatalf("expected only the requested channel, got mail=%d sms=%d", len(mail.payloads), len(sms.payloads))
		}
	})

	t.Run("DuplicateNamesDeliverOnce", func(t *testing.T) {
		// Arrange
		sms := &fakeChannel{name: "sms"}
		d, err := NewDispatcher(nil, nil, instrument.NewNoop(), sms)
		if err != nil {
			t.Fatalf("new dispatcher: %v", err)
		}

		// Act
		if err := d.Dispatch(context.Background(), testAccount(), "12345", []string{"sms", "sms"}); err != nil {
			t.Fatalf("dispatch: %v", err)
		}

		// Assert
		if len(sms.payloads) != 1 {
			t.Fatalf("expected one delivery, got %d", len(sms.payloads))
		}
	})

	t.Run("UnknownChannel", func(t *testing.T) {
		// Arrange
		sms := &fakeChannel{name: "sms"}
		d, err := NewDispatcher(nil, nil, instrument.NewNoop(), sms)
		if err != nil {
			t.Fatalf("new dispatcher: %v", err)
		}

		// Act
		err = d.Dispatch(context.Background(), testAccount(), "12345", []string{"pigeon"})

		// Assert
		if !errors.Is(err, entity.ErrUnknownChannel) {
			t.Fatalf("expected ErrUnknownChannel, got %v", err)
		}

		var derr *entity.DeliveryError
		if !errors.As(err, &derr) || derr.Channel != "pigeon" {
			t.Fatalf("expected DeliveryError naming the channel, got %v", err)
		}
	})

	t.Run("FailFastStopsLaterChannels", func(t *testing.T) {
		// Arrange
		mail := &fakeChannel{name: "mail", err: errors.New("smtp refused")}
		sms := &fakeChannel{name: "sms"}
		d, err := NewDispatcher(nil, nil, instrument.NewNoop(), mail, sms)
		if err != nil {
			t.Fatalf("new dispatcher: %v", err)
		}

		// Act
		err = d.Dispatch(context.Background(), testAccount(), "12345", []string{"mail", "sms"})

		// Assert
		var derr *entity.DeliveryError
		if !errors.As(err, &derr) || derr.Channel != "mail" {
			t.Fatalf("expected delivery error from mail, got %v", err)
		}
		if len(sms.payloads) != 0 {
			t.Fatalf("expected later channel skipped, got %d deliveries", len(sms.payloads))
		}
	})

	t.Run("RendersWithBuilder", func(t *testing.T) {
		// Arrange
		sms := &fakeChannel{name: "sms"}
		builder := DefaultBuilder("Login code", "Use {token} for {identifier}.")
		d, err := NewDispatcher(nil, builder, instrument.NewNoop(), sms)
		if err != nil {
			t.Fatalf("new dispatcher: %v", err)
		}

		// Act
		if err := d.Dispatch(context.Background(), testAccount(), "12345", []string{"sms"}); err != nil {
			t.Fatalf("dispatch: %v", err)
		}

		// Assert
		got := sms.payloads[0]
		if got.Subject != "Login code" {
			t.Fatalf("unexpected subject %q", got.Subject)
		}
		if got.Message != "Use 12345 for +6281234567890." {
			t.Fatalf("unexpected message %q", got.Message)
		}
		if got.Destination != "+6281234567890" {
			t.Fatalf("expected identifier as default destination, got %q", got.Destination)
		}
	})

	t.Run("ChannelResolvesOwnDestination", func(t *testing.T) {
		// Arrange
		mail := &fakeResolvingChannel{fakeChannel: fakeChannel{name: "mail"}, destination: "inbox@b.com"}
		d, err := NewDispatcher(nil, nil, instrument.NewNoop(), mail)
		if err != nil {
			t.Fatalf("new dispatcher: %v", err)
		}

		// Act
		if err := d.Dispatch(context.Background(), testAccount(), "12345", []string{"mail"}); err != nil {
			t.Fatalf("dispatch: %v", err)
		}

		// Assert
		if got := mail.payloads[0].Destination; got != "inbox@b.com" {
			t.Fatalf("expected resolved destination, got %q", got)
		}
	})
}

func TestDefaultBuilder(t *testing.T) {
	t.Run("BuiltInTemplate", func(t *testing.T) {
		// Arrange
		builder := DefaultBuilder("", "")

		// Act
		subject, body := builder("a@b.com", "12345")

		// Assert
		if subject != "Your verification code" {
			t.Fatalf("unexpected subject %q", subject)
		}
		if body != "12345 is your verification code. It expires shortly; do not share it." {
			t.Fatalf("unexpected body %q", body)
		}
	})
}

func TestMailDestination(t *testing.T) {
	t.Run("PrefersMetadataEmail", func(t *testing.T) {
		// Arrange
		ch := NewMail(nil, instrument.NewNoop())
		account := &entity.Account{
			Identifier: "+6281234567890",
			Metadata:   valueobject.JSONMap{"email": "inbox@b.com"},
		}

		// Act
		got := ch.Destination(account)

		// Assert
		if got != "inbox@b.com" {
			t.Fatalf("expected metadata email, got %q", got)
		}
	})

	t.Run("FallsBackToIdentifier", func(t *testing.T) {
		// Arrange
		ch := NewMail(nil, instrument.NewNoop())
		account := &entity.Account{Identifier: "a@b.com"}

		// Act
		got := ch.Destination(account)

		// Assert
		if got != "a@b.com" {
			t.Fatalf("expected identifier fallback, got %q", got)
		}
	})
}
