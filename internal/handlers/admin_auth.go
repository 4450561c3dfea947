package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/opencampus/redressal/internal/models"
	"github.com/opencampus/redressal/internal/services"
	pkghttp "github.com/opencampus/redressal/pkg/http"
)

// AdminVerificationServiceInterface defines the interface for the three-step
// admin login flow
type AdminVerificationServiceInterface interface {
	RequestCode(ctx context.Context, usernameOrEmail string) error
	VerifyCode(ctx context.Context, email, code string) error
	Login(ctx context.Context, usernameOrEmail, password string) (*services.AuthResponse, error)
}

// AdminAuthHandler handles the admin verification endpoints
type AdminAuthHandler struct {
	service AdminVerificationServiceInterface
}

func NewAdminAuthHandler(service AdminVerificationServiceInterface) *AdminAuthHandler {
	return &AdminAuthHandler{service: service}
}

// SendCodeRequest represents the request body for requesting a login code
type SendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyCodeRequest represents the request body for verifying a login code
type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

// AdminLoginRequest represents the final password step
type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SendCode issues a one-time code to the admin's email. An unknown admin is a
// 404; a queued-but-undelivered email is still a success.
func (h *AdminAuthHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req SendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.RequestCode(r.Context(), req.Email); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Admin account not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Verification code sent"})
}

// VerifyCode checks a submitted code. The three failure modes come back as
// distinct 400 messages so the client can tell a stale code from a typo.
func (h *AdminAuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.VerifyCode(r.Context(), req.Email, req.Code); err != nil {
		switch {
		case errors.Is(err, models.ErrCodeNotFound):
			pkghttp.WriteBadRequest(w, "No verification code found")
		case errors.Is(err, models.ErrCodeExpired):
			pkghttp.WriteBadRequest(w, "Verification code has expired")
		case errors.Is(err, models.ErrCodeMismatch):
			pkghttp.WriteBadRequest(w, "Incorrect verification code")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Code verified"})
}

// Login is the final password step of the admin flow.
func (h *AdminAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			pkghttp.WriteUnauthorized(w, "Authentication failed")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}
