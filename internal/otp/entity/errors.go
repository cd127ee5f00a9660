package entity

import (
	"errors"
	"fmt"
)

// ErrUnknownProvider indicates a provider name that is not registered.
var ErrUnknownProvider = errors.New("otp: unknown account provider")

// ErrUnknownChannel indicates a delivery channel name that is not registered.
var ErrUnknownChannel = errors.New("otp: unknown delivery channel")

// ValidationReason distinguishes why a token failed validation.
type ValidationReason string

const (
	// ReasonMissingOrExpired mean no active token exists for the identifier,
	// either because none was ever stored, it was consumed, or it expired.
	ReasonMissingOrExpired ValidationReason = "missing_or_expired"

	// ReasonMismatch mean an active token exists but the presented value does
	// not match it. The stored token stays valid for further attempts.
	ReasonMismatch ValidationReason = "mismatch"
)

// InvalidTokenError is returned by validation when the presented token cannot
// be accepted. Reason is machine-distinguishable for callers that message the
// two cases differently.
type InvalidTokenError struct {
	Reason ValidationReason
}

// Error implements the error interface.
func (e *InvalidTokenError) Error() string {
	return "otp: invalid token (" + string(e.Reason) + ")"
}

// DeliveryError is returned by send when a channel fails to deliver. Earlier
// channels in the dispatch order are not rolled back and the stored token
// remains active.
type DeliveryError struct {
	Channel string
	Err     error
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("otp: delivery through channel %q failed: %v", e.Channel, e.Err)
}

// Unwrap returns the underlying channel error.
func (e *DeliveryError) Unwrap() error {
	return e.Err
}
