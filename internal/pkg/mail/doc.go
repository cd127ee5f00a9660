// Package mail defines the contract for sending email messages.
//
// The mail delivery channel depends on the Mail interface and Message payload
// only, so the concrete transport (SMTP here, an API provider elsewhere) can
// change without touching the code that renders and dispatches verification
// codes.
package mail
