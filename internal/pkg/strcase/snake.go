package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake converts a Go field name to snake_case for JSON-facing error
// maps. Initialisms stay intact: AccountID -> account_id, HTTPCode -> http_code.
func ToLowerSnake(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s) + 4)

	runes := []rune(s)

	for i, r := range runes {
		// Boundaries: lower-or-digit followed by upper (tokenTTL -> token_TTL),
		// and the last upper of an acronym before a lowercase word
		// (SMSChannel -> SMS_Channel).
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			var next rune
			if i+1 < len(runes) {
				next = runes[i+1]
			}

			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				b.WriteRune('_')
			} else if unicode.IsUpper(prev) && next != 0 && unicode.IsLower(next) {
				b.WriteRune('_')
			}
		}

		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}
