// Package clock provides a tiny time abstraction.
//
// Code that evaluates token expiry depends on the Clocker interface instead of
// calling time.Now() directly, so tests can drive expiry deterministically
// with a fake clock.
package clock
