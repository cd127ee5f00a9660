// Package otpcode generates short one-time verification codes.
//
// Codes are drawn from a configurable alphabet and length using crypto/rand,
// so they stay unguessable within a normal validation attempt budget. The
// generator is pure: no I/O, no state beyond its configuration.
package otpcode
