package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/opencampus/redressal/internal/auth"
	"github.com/opencampus/redressal/internal/models"
	"github.com/opencampus/redressal/internal/services"
	pkghttp "github.com/opencampus/redressal/pkg/http"
)

// AuthServiceInterface defines the interface for signup and account logic
type AuthServiceInterface interface {
	Signup(ctx context.Context, in services.SignupInput) (*services.AuthResponse, error)
	Login(ctx context.Context, usernameOrEmail, password string, hint models.Role) (*services.AuthResponse, error)
	UpdateProfile(ctx context.Context, ident *models.Identity, patch services.ProfileUpdate) (*models.Identity, error)
	ChangePassword(ctx context.Context, ident *models.Identity, currentPassword, newPassword string) error
	CheckAvailability(ctx context.Context, username, email string) (bool, bool, error)
}

// AuthHandler handles signup, login and account self-service requests
type AuthHandler struct {
	service AuthServiceInterface
}

func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// Request DTOs

// SignupRequest represents the request body for signup
type SignupRequest struct {
	Role       string `json:"role" validate:"required,oneof=student faculty admin"`
	Name       string `json:"name" validate:"required,min=1,max=120"`
	Username   string `json:"username" validate:"required,min=3,max=40"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	Department string `json:"department,omitempty" validate:"omitempty,max=120"`
	Year       int    `json:"year,omitempty" validate:"omitempty,gte=1,lte=8"`
	Title      string `json:"title,omitempty" validate:"omitempty,max=120"`
}

// LoginRequest represents the request body for login. Role is an optional
// hint restricting the lookup to one identity collection.
type LoginRequest struct {
	UsernameOrEmail string `json:"username_or_email" validate:"required"`
	Password        string `json:"password" validate:"required"`
	Role            string `json:"role,omitempty" validate:"omitempty,oneof=student faculty admin"`
}

// UpdateProfileRequest represents the request body for profile updates
type UpdateProfileRequest struct {
	Name       string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Department string `json:"department,omitempty" validate:"omitempty,max=120"`
	Year       int    `json:"year,omitempty" validate:"omitempty,gte=1,lte=8"`
	Title      string `json:"title,omitempty" validate:"omitempty,max=120"`
}

// ChangePasswordRequest represents the request body for password changes
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// AvailabilityResponse reports whether a username or email is already taken
type AvailabilityResponse struct {
	UsernameTaken bool `json:"username_taken"`
	EmailTaken    bool `json:"email_taken"`
}

// Signup handles account creation
// @Summary Create an account in one of the role collections
// @Accept json
// @Param request body SignupRequest true "Signup request"
// @Produce json
// @Success 201 {object} services.AuthResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Unsupported role")
		return
	}

	resp, err := h.service.Signup(r.Context(), services.SignupInput{
		Role:       role,
		Name:       req.Name,
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		Department: req.Department,
		Year:       req.Year,
		Title:      req.Title,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			// Duplicates are a client error on this surface, not a 409.
			pkghttp.WriteBadRequest(w, conflictMessage(err))
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, badRequestMessage(err))
		case errors.Is(err, models.ErrUnsupportedRole):
			pkghttp.WriteBadRequest(w, "Unsupported role")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, resp)
}

func conflictMessage(err error) string {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "username"):
		return "Username is already taken"
	case strings.HasPrefix(msg, "email"):
		return "Email is already registered"
	default:
		return "Resource already exists"
	}
}

func badRequestMessage(err error) string {
	// errors.Join output is "bad request\n<detail>"; surface the detail.
	if parts := strings.SplitN(err.Error(), "\n", 2); len(parts) == 2 {
		return parts[1]
	}
	return "Invalid request"
}

// Login handles credential login for any role
// @Summary Log in with a username or email plus password
// @Accept json
// @Param request body LoginRequest true "Login request"
// @Produce json
// @Success 200 {object} services.AuthResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Login(r.Context(), req.UsernameOrEmail, req.Password, models.Role(req.Role))
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

// Me returns the authenticated identity.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromContext(r)
	if ident == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, ident)
}

// UpdateProfile applies a partial update to the caller's profile. Role and
// credential fields are not part of the DTO; a payload carrying them is
// rejected before the service runs.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromContext(r)
	if ident == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	for _, forbidden := range []string{"role", "password", "password_hash", "email", "username"} {
		if _, present := raw[forbidden]; present {
			pkghttp.WriteBadRequest(w, "Field cannot be changed: "+forbidden)
			return
		}
	}

	var req UpdateProfileRequest
	if err := decodeFields(raw, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), ident, services.ProfileUpdate{
		Name:       req.Name,
		Department: req.Department,
		Year:       req.Year,
		Title:      req.Title,
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Identity not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, updated)
}

func decodeFields(raw map[string]json.RawMessage, dst interface{}) error {
	buf, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, dst)
}

// ChangePassword rotates the caller's password after verifying the current one.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromContext(r)
	if ident == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := h.service.ChangePassword(r.Context(), ident, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Current password is incorrect")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, badRequestMessage(err))
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

// Availability reports whether a username or email is taken anywhere.
// Public endpoint; both query parameters are optional.
func (h *AuthHandler) Availability(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	email := r.URL.Query().Get("email")
	if username == "" && email == "" {
		pkghttp.WriteBadRequest(w, "Provide a username or email to check")
		return
	}

	usernameTaken, emailTaken, err := h.service.CheckAvailability(r.Context(), username, email)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, AvailabilityResponse{
		UsernameTaken: usernameTaken,
		EmailTaken:    emailTaken,
	})
}
