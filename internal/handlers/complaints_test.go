package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/redressal/internal/models"
	"github.com/opencampus/redressal/internal/services"
)

// withURLParam attaches a chi route parameter to the request context.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestComplaintHandler_Create_Success(t *testing.T) {
	student := newTestIdentity(models.RoleStudent)
	svc := &MockComplaintService{
		CreateFunc: func(ctx context.Context, caller *models.Identity, in services.ComplaintInput) (*models.Complaint, error) {
			return &models.Complaint{
				ID:        uuid.New().String(),
				StudentID: caller.ID,
				Title:     in.Title,
				Status:    models.ComplaintOpen,
			}, nil
		},
	}
	h := NewComplaintHandler(svc)

	body := `{"title":"Broken projector","description":"Room 204 projector does not power on."}`
	w := httptest.NewRecorder()
	h.Create(w, newAuthedRequest(http.MethodPost, "/complaints", body, student))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Broken projector")
}

func TestComplaintHandler_Create_ShortDescription(t *testing.T) {
	h := NewComplaintHandler(&MockComplaintService{})
	student := newTestIdentity(models.RoleStudent)

	body := `{"title":"Broken","description":"short"}`
	w := httptest.NewRecorder()
	h.Create(w, newAuthedRequest(http.MethodPost, "/complaints", body, student))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestComplaintHandler_List_PassesFilters(t *testing.T) {
	var gotStatus string
	var gotLimit, gotOffset int
	svc := &MockComplaintService{
		ListFunc: func(ctx context.Context, caller *models.Identity, status string, limit, offset int) ([]*models.Complaint, error) {
			gotStatus, gotLimit, gotOffset = status, limit, offset
			return []*models.Complaint{}, nil
		},
	}
	h := NewComplaintHandler(svc)

	w := httptest.NewRecorder()
	h.List(w, newAuthedRequest(http.MethodGet, "/complaints?status=open&limit=5&offset=10", "", newTestIdentity(models.RoleAdmin)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "open", gotStatus)
	assert.Equal(t, 5, gotLimit)
	assert.Equal(t, 10, gotOffset)
}

func TestComplaintHandler_Get_NotFound(t *testing.T) {
	h := NewComplaintHandler(&MockComplaintService{})

	r := newAuthedRequest(http.MethodGet, "/complaints/abc", "", newTestIdentity(models.RoleStudent))
	w := httptest.NewRecorder()
	h.Get(w, withURLParam(r, "id", "abc"))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestComplaintHandler_Assign_Success(t *testing.T) {
	facultyID := uuid.New().String()
	complaintID := uuid.New().String()
	svc := &MockComplaintService{
		AssignFunc: func(ctx context.Context, caller *models.Identity, cID, fID string) (*models.Complaint, error) {
			assert.Equal(t, complaintID, cID)
			assert.Equal(t, facultyID, fID)
			return &models.Complaint{ID: cID, AssignedTo: &fID, Status: models.ComplaintInProgress}, nil
		},
	}
	h := NewComplaintHandler(svc)

	r := newAuthedRequest(http.MethodPatch, "/complaints/"+complaintID+"/assign",
		`{"faculty_id":"`+facultyID+`"}`, newTestIdentity(models.RoleAdmin))
	w := httptest.NewRecorder()
	h.Assign(w, withURLParam(r, "id", complaintID))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), models.ComplaintInProgress)
}

func TestComplaintHandler_Assign_InvalidFacultyID(t *testing.T) {
	h := NewComplaintHandler(&MockComplaintService{})

	r := newAuthedRequest(http.MethodPatch, "/complaints/x/assign",
		`{"faculty_id":"not-a-uuid"}`, newTestIdentity(models.RoleAdmin))
	w := httptest.NewRecorder()
	h.Assign(w, withURLParam(r, "id", "x"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestComplaintHandler_UpdateStatus_InvalidStatus(t *testing.T) {
	h := NewComplaintHandler(&MockComplaintService{})

	r := newAuthedRequest(http.MethodPatch, "/complaints/x/status",
		`{"status":"escalated"}`, newTestIdentity(models.RoleFaculty))
	w := httptest.NewRecorder()
	h.UpdateStatus(w, withURLParam(r, "id", "x"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestComplaintHandler_UpdateStatus_Forbidden(t *testing.T) {
	svc := &MockComplaintService{
		UpdateStatusFunc: func(ctx context.Context, caller *models.Identity, complaintID, status string, resolution *string) (*models.Complaint, error) {
			return nil, models.ErrForbidden
		},
	}
	h := NewComplaintHandler(svc)

	r := newAuthedRequest(http.MethodPatch, "/complaints/x/status",
		`{"status":"resolved","resolution":"done"}`, newTestIdentity(models.RoleFaculty))
	w := httptest.NewRecorder()
	h.UpdateStatus(w, withURLParam(r, "id", "x"))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestComplaintHandler_Delete_NoContent(t *testing.T) {
	h := NewComplaintHandler(&MockComplaintService{})

	r := newAuthedRequest(http.MethodDelete, "/complaints/x", "", newTestIdentity(models.RoleAdmin))
	w := httptest.NewRecorder()
	h.Delete(w, withURLParam(r, "id", "x"))

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestComplaintHandler_Unauthenticated(t *testing.T) {
	h := NewComplaintHandler(&MockComplaintService{})

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/complaints", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
