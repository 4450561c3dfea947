package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/opencampus/redressal/internal/auth"
	"github.com/opencampus/redressal/internal/models"
	"github.com/opencampus/redressal/internal/services"
	pkghttp "github.com/opencampus/redressal/pkg/http"
)

// ComplaintServiceInterface defines the interface for complaint logic
type ComplaintServiceInterface interface {
	Create(ctx context.Context, caller *models.Identity, in services.ComplaintInput) (*models.Complaint, error)
	List(ctx context.Context, caller *models.Identity, status string, limit, offset int) ([]*models.Complaint, error)
	Get(ctx context.Context, caller *models.Identity, id string) (*models.Complaint, error)
	Assign(ctx context.Context, caller *models.Identity, complaintID, facultyID string) (*models.Complaint, error)
	UpdateStatus(ctx context.Context, caller *models.Identity, complaintID, status string, resolution *string) (*models.Complaint, error)
	Delete(ctx context.Context, caller *models.Identity, complaintID string) error
}

// ComplaintHandler handles complaint HTTP requests
type ComplaintHandler struct {
	service ComplaintServiceInterface
}

func NewComplaintHandler(service ComplaintServiceInterface) *ComplaintHandler {
	return &ComplaintHandler{service: service}
}

// CreateComplaintRequest represents the request body for filing a complaint
type CreateComplaintRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"required,min=10,max=5000"`
	Category    string `json:"category,omitempty" validate:"omitempty,max=60"`
}

// AssignComplaintRequest represents the request body for routing a complaint
type AssignComplaintRequest struct {
	FacultyID string `json:"faculty_id" validate:"required,uuid"`
}

// UpdateComplaintStatusRequest represents a status transition
type UpdateComplaintStatusRequest struct {
	Status     string  `json:"status" validate:"required,oneof=open in_progress resolved rejected"`
	Resolution *string `json:"resolution,omitempty"`
}

func (h *ComplaintHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromContext(r)
	if ident == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req CreateComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	complaint, err := h.service.Create(r.Context(), ident, services.ComplaintInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		writeComplaintError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, complaint)
}

func (h *ComplaintHandler) List(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromContext(r)
	if ident == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	status := r.URL.Query().Get("status")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	complaints, err := h.service.List(r.Context(), ident, status, limit, offset)
	if err != nil {
		writeComplaintError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, complaints)
}

func (h *ComplaintHandler) Get(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromContext(r)
	if ident == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	complaint, err := h.service.Get(r.Context(), ident, chi.URLParam(r, "id"))
	if err != nil {
		writeComplaintError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, complaint)
}

func (h *ComplaintHandler) Assign(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromContext(r)
	if ident == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req AssignComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	complaint, err := h.service.Assign(r.Context(), ident, chi.URLParam(r, "id"), req.FacultyID)
	if err != nil {
		writeComplaintError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, complaint)
}

func (h *ComplaintHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromContext(r)
	if ident == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	var req UpdateComplaintStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	complaint, err := h.service.UpdateStatus(r.Context(), ident, chi.URLParam(r, "id"), req.Status, req.Resolution)
	if err != nil {
		writeComplaintError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, complaint)
}

func (h *ComplaintHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident := auth.IdentityFromContext(r)
	if ident == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	if err := h.service.Delete(r.Context(), ident, chi.URLParam(r, "id")); err != nil {
		writeComplaintError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeComplaintError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Complaint not found")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Insufficient permissions")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, badRequestMessage(err))
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
