package channel

import (
	"context"
	"encoding/json"

	"github.com/iamroi/otpbroker/internal/otp/entity"
	"github.com/iamroi/otpbroker/internal/pkg/instrument"
	"github.com/iamroi/otpbroker/internal/pkg/messaging"
	"go.opentelemetry.io/otel/codes"
)

// NameSMS is the registration name of the SMS channel.
const NameSMS = "sms"

// smsEvent is the wire format consumed by the SMS gateway worker.
type smsEvent struct {
	Destination string `json:"destination"`
	Message     string `json:"message"`
}

// SMS delivers by publishing the rendered message to a broker topic; an
// external gateway worker performs the actual carrier send. A publish failure
// is a delivery failure from the dispatcher's point of view.
type SMS struct {
	publisher messaging.Messaging
	topic     string
	ins       instrument.Instrumentation
}

// NewSMS constructs the SMS channel.
func NewSMS(publisher messaging.Messaging, topic string, ins instrument.Instrumentation) *SMS {
	return &SMS{
		publisher: publisher,
		topic:     topic,
		ins:       ins,
	}
}

// Name implements Channel.
func (s *SMS) Name() string {
	return NameSMS
}

// Send publishes the payload for the gateway worker.
func (s *SMS) Send(ctx context.Context, payload entity.DeliveryPayload) error {
	ctx, span := s.ins.Tracer("otp.outbound.channel.sms").Start(ctx, "Send")
	defer span.End()

	body, err := json.Marshal(smsEvent{
		Destination: payload.Destination,
		Message:     payload.Message,
	})
	if err != nil {
		return err
	}

	_, err = s.publisher.Publish(ctx, s.topic, messaging.OutgoingMessage{
		Body: body,
		Key:  []byte(payload.Destination),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
