// Package uid provides unique identifier generators.
package uid

// NumberID generates numeric identifiers.
type NumberID interface {
	// Generate returns a new numeric identifier.
	Generate() int64
}

// StringID generates string identifiers.
type StringID interface {
	// Generate returns a new string identifier.
	Generate() string
}
