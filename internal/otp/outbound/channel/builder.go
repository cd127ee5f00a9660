package channel

import (
	"context"
	"io"
	"strings"

	"github.com/iamroi/otpbroker/internal/pkg/storage"
)

const (
	defaultSubject  = "Your verification code"
	defaultTemplate = "{token} is your verification code. It expires shortly; do not share it."
)

// Builder renders the message content for one delivery. Registered once at
// process startup and invoked per dispatch; it is configuration, not part of
// the broker state machine.
type Builder func(identifier, token string) (subject, body string)

// DefaultBuilder returns a Builder that interpolates {token} and {identifier}
// placeholders into the given template. Empty arguments fall back to the
// built-in subject and template.
func DefaultBuilder(subject, template string) Builder {
	if subject == "" {
		subject = defaultSubject
	}
	if template == "" {
		template = defaultTemplate
	}

	return func(identifier, token string) (string, string) {
		replacer := strings.NewReplacer("{token}", token, "{identifier}", identifier)
		return subject, replacer.Replace(template)
	}
}

// LoadTemplate fetches a message template from object storage. Used at
// startup when a deployment keeps its wording centralized in a bucket rather
// than in the config file.
func LoadTemplate(ctx context.Context, st storage.Storage, bucket, key string) (string, error) {
	rc, err := st.GetObject(ctx, bucket, key)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(data)), nil
}
