package channel

import (
	"context"

	"github.com/iamroi/otpbroker/internal/otp/entity"
	"github.com/iamroi/otpbroker/internal/pkg/instrument"
	"github.com/iamroi/otpbroker/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
)

// NameMail is the registration name of the mail channel.
const NameMail = "mail"

// metadataEmailKey is the account metadata field holding the email address.
const metadataEmailKey = "email"

// Mail delivers the code over SMTP.
type Mail struct {
	client mail.Mail
	ins    instrument.Instrumentation
}

// NewMail constructs the mail channel.
func NewMail(client mail.Mail, ins instrument.Instrumentation) *Mail {
	return &Mail{
		client: client,
		ins:    ins,
	}
}

// Name implements Channel.
func (m *Mail) Name() string {
	return NameMail
}

// Destination prefers the account's registered email address and falls back
// to the identifier, which covers providers keyed by email.
func (m *Mail) Destination(account *entity.Account) string {
	if addr := account.Metadata.GetString(metadataEmailKey); addr != "" {
		return addr
	}
	return account.Identifier
}

// Send delivers the payload as a plain-text email.
func (m *Mail) Send(ctx context.Context, payload entity.DeliveryPayload) error {
	ctx, span := m.ins.Tracer("otp.outbound.channel.mail").Start(ctx, "Send")
	defer span.End()

	err := m.client.Send(ctx, mail.Message{
		To:       []string{payload.Destination},
		Subject:  payload.Subject,
		TextBody: payload.Message,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
