package otpcode

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		// Arrange
		gen := New(0, "")

		// Act
		code, err := gen.Generate()

		// Assert
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 5 {
			t.Fatalf("expected 5 characters, got %q", code)
		}
		for _, c := range code {
			if !strings.ContainsRune(AlphabetDigits, c) {
				t.Fatalf("expected only digits, got %q", code)
			}
		}
	})

	t.Run("CustomLengthAndAlphabet", func(t *testing.T) {
		// Arrange
		gen := New(8, AlphabetAlphanumeric)

		// Act
		code, err := gen.Generate()

		// Assert
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 8 {
			t.Fatalf("expected 8 characters, got %q", code)
		}
		for _, c := range code {
			if !strings.ContainsRune(AlphabetAlphanumeric, c) {
				t.Fatalf("unexpected character in %q", code)
			}
		}
	})

	t.Run("CodesVary", func(t *testing.T) {
		// Arrange
		gen := New(6, AlphabetDigits)

		// Act
		seen := map[string]struct{}{}
		for range 50 {
			code, err := gen.Generate()
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			seen[code] = struct{}{}
		}

		// Assert
		if len(seen) < 2 {
			t.Fatalf("expected varied codes, got %d distinct of 50", len(seen))
		}
	})
}
