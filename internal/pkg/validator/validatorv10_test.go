package validator

import (
	"errors"
	"testing"
)

func TestV10ValidatorIdentifierRule(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	type payload struct {
		Identifier string `validate:"required,identifier"`
	}

	t.Run("Accepts", func(t *testing.T) {
		for _, id := range []string{"a@b.com", "first.last@sub.example.org", "+6281234567890", "08123456789"} {
			if err := v.Validate(payload{Identifier: id}); err != nil {
				t.Fatalf("expected %q to be accepted: %v", id, err)
			}
		}
	})

	t.Run("Rejects", func(t *testing.T) {
		for _, id := range []string{"", "plainstring", "a@b", "@b.com", "+12", "phone 123", "a b@c.com"} {
			if err := v.Validate(payload{Identifier: id}); err == nil {
				t.Fatalf("expected %q to be rejected", id)
			}
		}
	})

	t.Run("TranslatedMessage", func(t *testing.T) {
		// Arrange
		err := v.Validate(payload{Identifier: "plainstring"})

		// Assert
		var verr V10ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected V10ValidationError, got %T", err)
		}
		if verr.Values()["identifier"] != "Identifier must be an email address or a phone number" {
			t.Fatalf("unexpected message %q", verr.Values()["identifier"])
		}
	})
}
