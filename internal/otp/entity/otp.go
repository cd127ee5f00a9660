package entity

import (
	"time"

	"github.com/iamroi/otpbroker/internal/pkg/valueobject"
)

// Token is the one-time verification code currently on record for an
// identifier. A token is active until it is consumed by a successful
// validation, superseded by a newer token, or its expiry passes.
type Token struct {
	Identifier string
	Value      string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the token's expiry has passed at the given time.
func (t Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Account is the application record resolved for an identifier. It is created
// lazily on the first send, so everything except the identifier starts empty.
type Account struct {
	ID         int64
	Identifier string
	Verified   bool
	VerifiedAt *time.Time
	Metadata   valueobject.JSONMap
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DeliveryPayload is the rendered message handed to a delivery channel.
type DeliveryPayload struct {
	Identifier  string
	Destination string
	Token       string
	Subject     string
	Message     string
}
