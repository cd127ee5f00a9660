package clock

import "time"

// Clocker abstracts the current time so expiry decisions can be tested with a
// fixed clock.
type Clocker interface {
	Now() time.Time
}

// TimeClocker is the production clock backed by time.Now.
type TimeClocker struct{}

// New returns a TimeClocker reading the system clock.
func New() *TimeClocker {
	return &TimeClocker{}
}

// Now returns the current system time in UTC. Token timestamps are stored and
// compared in UTC so expiry does not depend on the host timezone.
func (*TimeClocker) Now() time.Time {
	return time.Now().UTC()
}
