package inbound

import (
	"time"

	"github.com/iamroi/otpbroker/internal/otp/entity"
)

type SendRequest struct {
	Identifier string   `json:"identifier"`
	Provider   string   `json:"provider,omitempty"`
	Channels   []string `json:"channels,omitempty"`
}

type SendResponse struct {
	Account AccountResponse `json:"account"`
}

func (SendResponse) Message() string {
	return "A verification code has been sent."
}

type ValidateRequest struct {
	Identifier string `json:"identifier"`
	Token      string `json:"token"`
	Provider   string `json:"provider,omitempty"`
}

type ValidateResponse struct {
	Account AccountResponse `json:"account"`
}

func (ValidateResponse) Message() string {
	return "Verification successful."
}

type AccountResponse struct {
	ID         int64      `json:"id,string"`
	Identifier string     `json:"identifier"`
	Verified   bool       `json:"verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func newAccountResponse(a entity.Account) AccountResponse {
	return AccountResponse{
		ID:         a.ID,
		Identifier: a.Identifier,
		Verified:   a.Verified,
		VerifiedAt: a.VerifiedAt,
		CreatedAt:  a.CreatedAt,
	}
}
