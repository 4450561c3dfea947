package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/opencampus/redressal/internal/auth"
	"github.com/opencampus/redressal/internal/models"
	pkghttp "github.com/opencampus/redressal/pkg/http"
)

// UserAdminServiceInterface defines the interface for administrative account
// management
type UserAdminServiceInterface interface {
	List(ctx context.Context, role models.Role, limit, offset int) ([]*models.Identity, error)
	Get(ctx context.Context, role models.Role, id string) (*models.Identity, error)
	Delete(ctx context.Context, caller *models.Identity, role models.Role, id string) error
}

// UserHandler handles the admin-only account management endpoints
type UserHandler struct {
	service UserAdminServiceInterface
}

func NewUserHandler(service UserAdminServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// List returns accounts of one collection, selected with the required `role`
// query parameter.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	role, err := models.ParseRole(r.URL.Query().Get("role"))
	if err != nil {
		pkghttp.WriteBadRequest(w, "Unsupported role")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	idents, err := h.service.List(r.Context(), role, limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, idents)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	role, err := models.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		pkghttp.WriteBadRequest(w, "Unsupported role")
		return
	}

	ident, err := h.service.Get(r.Context(), role, chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Account not found")
		case errors.Is(err, models.ErrUnsupportedRole):
			pkghttp.WriteBadRequest(w, "Unsupported role")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ident)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller := auth.IdentityFromContext(r)
	if caller == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	role, err := models.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		pkghttp.WriteBadRequest(w, "Unsupported role")
		return
	}

	if err := h.service.Delete(r.Context(), caller, role, chi.URLParam(r, "id")); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Account not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, badRequestMessage(err))
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
