// Package validator provides a small validation abstraction for request and
// domain structs.
//
// Business code depends on the Validator interface; the concrete
// go-playground/validator v10 implementation lives here together with the
// custom "identifier" rule (email address or E.164 phone number).
package validator
