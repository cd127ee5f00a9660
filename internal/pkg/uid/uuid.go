package uid

import "github.com/google/uuid"

// UUID generates RFC 4122 UUID strings, used for request correlation IDs.
type UUID struct{}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a time-ordered UUIDv7 string, falling back to a random
// UUIDv4 when the clock source fails.
func (u *UUID) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
