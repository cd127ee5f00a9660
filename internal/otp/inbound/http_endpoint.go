package inbound

import (
	"github.com/iamroi/otpbroker/internal/otp/usecase"
	"github.com/iamroi/otpbroker/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for the one-time code workflows.
type HTTPEndpoint struct {
	uc uc
}

// Send generates a one-time code for an identifier and delivers it.
// @Summary Send verification code
// @Description Creates the account for the identifier if it does not exist, generates a one-time code and delivers it through the requested channels.
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body SendRequest true "Send payload"
// @Success 200 {object} router.successResponse{data=SendResponse} "Delivery result"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 404 {object} router.errorResponse "Unknown provider"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Re-send requested too soon"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/otp/send [post]
func (h *HTTPEndpoint) Send(r *router.Request) (any, error) {
	var req SendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Send(r.Context(), usecase.SendInput{
		Identifier: req.Identifier,
		Provider:   req.Provider,
		Channels:   req.Channels,
	})
	if err != nil {
		return nil, err
	}

	return SendResponse{Account: newAccountResponse(resp.Account)}, nil
}

// Validate checks a submitted code and marks the account verified on a match.
// @Summary Validate verification code
// @Description Compares the submitted code against the active one for the identifier. A match consumes the code and marks the account verified.
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body ValidateRequest true "Validate payload"
// @Success 200 {object} router.successResponse{data=ValidateResponse} "Verified account"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 401 {object} router.errorResponse "Code missing, expired or mismatched"
// @Failure 404 {object} router.errorResponse "Unknown provider"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /api/v1/otp/validate [post]
func (h *HTTPEndpoint) Validate(r *router.Request) (any, error) {
	var req ValidateRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Validate(r.Context(), usecase.ValidateInput{
		Identifier: req.Identifier,
		Token:      req.Token,
		Provider:   req.Provider,
	})
	if err != nil {
		return nil, err
	}

	return ValidateResponse{Account: newAccountResponse(resp.Account)}, nil
}
