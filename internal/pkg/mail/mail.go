package mail

import (
	"context"
	"io"
)

// Message represents an email payload. Verification code mails only fill To,
// Subject and TextBody; the remaining fields exist for richer notifications.
type Message struct {
	// From is an optional explicit sender; the transport's configured sender
	// applies when empty.
	From string
	// To lists required recipients.
	To []string
	// Cc lists carbon copy recipients.
	Cc []string
	// Bcc lists blind carbon copy recipients.
	Bcc []string
	// Subject is the email subject line.
	Subject string
	// TextBody is the plain-text body.
	TextBody string
	// HTMLBody is the optional HTML body; when both bodies are set the mail is
	// sent as multipart/alternative.
	HTMLBody string
}

// Mail abstracts an email provider.
type Mail interface {
	io.Closer
	// Send dispatches the given message using the underlying provider.
	Send(ctx context.Context, msg Message) error
}
