package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/iamroi/otpbroker/internal/otp/entity"
	"github.com/iamroi/otpbroker/internal/pkg/goerror"
)

func TestSend(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		h := newHarness(t)

		// Act
		out, err := h.uc.Send(context.Background(), SendInput{Identifier: "a@b.com"})

		// Assert
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		if out.Account.Identifier != "a@b.com" {
			t.Fatalf("expected resolved account, got %+v", out.Account)
		}

		tok, err := h.tokens.Get(context.Background(), "a@b.com")
		if err != nil {
			t.Fatalf("expected stored token: %v", err)
		}
		if tok.Value != "11111" {
			t.Fatalf("expected generated code stored, got %q", tok.Value)
		}
		if want := h.clock.Now().Add(h.uc.tokenTTL); !tok.ExpiresAt.Equal(want) {
			t.Fatalf("expected expiry %v, got %v", want, tok.ExpiresAt)
		}

		if len(h.dispatch.calls) != 1 {
			t.Fatalf("expected one dispatch, got %d", len(h.dispatch.calls))
		}
		if h.dispatch.calls[0].token != "11111" {
			t.Fatalf("expected dispatched code 11111, got %q", h.dispatch.calls[0].token)
		}
	})

	t.Run("PhoneIdentifier", func(t *testing.T) {
		// Arrange
		h := newHarness(t)

		// Act
		_, err := h.uc.Send(context.Background(), SendInput{Identifier: "+6281234567890", Channels: []string{"sms"}})

		// Assert
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		if got := h.dispatch.calls[0].channels; len(got) != 1 || got[0] != "sms" {
			t.Fatalf("expected requested channels forwarded, got %v", got)
		}
	})

	t.Run("InvalidIdentifier", func(t *testing.T) {
		// Arrange
		h := newHarness(t)

		// Act
		_, err := h.uc.Send(context.Background(), SendInput{Identifier: "not an identifier"})

		// Assert
		if err == nil {
			t.Fatalf("expected validation error")
		}
		assertCode(t, err, goerror.CodeInvalidInput)
		if len(h.dispatch.calls) != 0 {
			t.Fatalf("expected no dispatch on invalid input")
		}
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		// Arrange
		h := newHarness(t)

		// Act
		_, err := h.uc.Send(context.Background(), SendInput{Identifier: "a@b.com", Provider: "ghosts"})

		// Assert
		if !errors.Is(err, entity.ErrUnknownProvider) {
			t.Fatalf("expected ErrUnknownProvider, got %v", err)
		}
		assertCode(t, err, goerror.CodeNotFound)
	})

	t.Run("ResendSupersedesActiveCode", func(t *testing.T) {
		// Arrange
		h := newHarness(t, func(dep *Dependency) { dep.Guard = nil })
		if _, err := h.uc.Send(context.Background(), SendInput{Identifier: "a@b.com"}); err != nil {
			t.Fatalf("first send: %v", err)
		}

		// Act
		if _, err := h.uc.Send(context.Background(), SendInput{Identifier: "a@b.com"}); err != nil {
			t.Fatalf("second send: %v", err)
		}

		// Assert
		tok, err := h.tokens.Get(context.Background(), "a@b.com")
		if err != nil {
			t.Fatalf("get token: %v", err)
		}
		if tok.Value != "22222" {
			t.Fatalf("expected newest code to replace the old one, got %q", tok.Value)
		}
	})

	t.Run("CooldownBlocksImmediateResend", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		if _, err := h.uc.Send(context.Background(), SendInput{Identifier: "a@b.com"}); err != nil {
			t.Fatalf("first send: %v", err)
		}

		// Act
		_, err := h.uc.Send(context.Background(), SendInput{Identifier: "a@b.com"})

		// Assert
		assertCode(t, err, goerror.CodeTooManyRequest)
		if len(h.dispatch.calls) != 1 {
			t.Fatalf("expected no second dispatch, got %d", len(h.dispatch.calls))
		}
	})

	t.Run("DeliveryFailureKeepsStoredCode", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.dispatch.err = &entity.DeliveryError{Channel: "mail", Err: errors.New("smtp refused")}

		// Act
		_, err := h.uc.Send(context.Background(), SendInput{Identifier: "a@b.com"})

		// Assert
		if err == nil {
			t.Fatalf("expected delivery error")
		}
		assertCode(t, err, goerror.CodeInternal)

		var derr *entity.DeliveryError
		if !errors.As(err, &derr) || derr.Channel != "mail" {
			t.Fatalf("expected wrapped delivery error, got %v", err)
		}

		tok, err := h.tokens.Get(context.Background(), "a@b.com")
		if err != nil {
			t.Fatalf("expected code to survive the failed delivery: %v", err)
		}
		if tok.Value != "11111" {
			t.Fatalf("unexpected stored code %q", tok.Value)
		}
	})

	t.Run("AccountCreatedLazily", func(t *testing.T) {
		// Arrange
		h := newHarness(t)

		// Act
		first, err := h.uc.Send(context.Background(), SendInput{Identifier: "new@b.com"})
		if err != nil {
			t.Fatalf("send: %v", err)
		}

		// Assert
		second, err := h.accounts.Resolve(context.Background(), "new@b.com")
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if first.Account.ID != second.ID {
			t.Fatalf("expected resolve to reuse account %d, got %d", first.Account.ID, second.ID)
		}
	})
}
