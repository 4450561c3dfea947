package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opencampus/redressal/internal/auth"
	"github.com/opencampus/redressal/internal/models"
	"github.com/opencampus/redressal/internal/services"
)

// MockAuthService implements AuthServiceInterface with function fields.
type MockAuthService struct {
	SignupFunc            func(ctx context.Context, in services.SignupInput) (*services.AuthResponse, error)
	LoginFunc             func(ctx context.Context, usernameOrEmail, password string, hint models.Role) (*services.AuthResponse, error)
	UpdateProfileFunc     func(ctx context.Context, ident *models.Identity, patch services.ProfileUpdate) (*models.Identity, error)
	ChangePasswordFunc    func(ctx context.Context, ident *models.Identity, currentPassword, newPassword string) error
	CheckAvailabilityFunc func(ctx context.Context, username, email string) (bool, bool, error)
}

func (m *MockAuthService) Signup(ctx context.Context, in services.SignupInput) (*services.AuthResponse, error) {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, in)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAuthService) Login(ctx context.Context, usernameOrEmail, password string, hint models.Role) (*services.AuthResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, usernameOrEmail, password, hint)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) UpdateProfile(ctx context.Context, ident *models.Identity, patch services.ProfileUpdate) (*models.Identity, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, ident, patch)
	}
	return ident, nil
}

func (m *MockAuthService) ChangePassword(ctx context.Context, ident *models.Identity, currentPassword, newPassword string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, ident, currentPassword, newPassword)
	}
	return nil
}

func (m *MockAuthService) CheckAvailability(ctx context.Context, username, email string) (bool, bool, error) {
	if m.CheckAvailabilityFunc != nil {
		return m.CheckAvailabilityFunc(ctx, username, email)
	}
	return false, false, nil
}

// MockAdminVerificationService implements AdminVerificationServiceInterface.
type MockAdminVerificationService struct {
	RequestCodeFunc func(ctx context.Context, usernameOrEmail string) error
	VerifyCodeFunc  func(ctx context.Context, email, code string) error
	LoginFunc       func(ctx context.Context, usernameOrEmail, password string) (*services.AuthResponse, error)
}

func (m *MockAdminVerificationService) RequestCode(ctx context.Context, usernameOrEmail string) error {
	if m.RequestCodeFunc != nil {
		return m.RequestCodeFunc(ctx, usernameOrEmail)
	}
	return nil
}

func (m *MockAdminVerificationService) VerifyCode(ctx context.Context, email, code string) error {
	if m.VerifyCodeFunc != nil {
		return m.VerifyCodeFunc(ctx, email, code)
	}
	return nil
}

func (m *MockAdminVerificationService) Login(ctx context.Context, usernameOrEmail, password string) (*services.AuthResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, usernameOrEmail, password)
	}
	return nil, models.ErrUnauthorized
}

// MockComplaintService implements ComplaintServiceInterface.
type MockComplaintService struct {
	CreateFunc       func(ctx context.Context, caller *models.Identity, in services.ComplaintInput) (*models.Complaint, error)
	ListFunc         func(ctx context.Context, caller *models.Identity, status string, limit, offset int) ([]*models.Complaint, error)
	GetFunc          func(ctx context.Context, caller *models.Identity, id string) (*models.Complaint, error)
	AssignFunc       func(ctx context.Context, caller *models.Identity, complaintID, facultyID string) (*models.Complaint, error)
	UpdateStatusFunc func(ctx context.Context, caller *models.Identity, complaintID, status string, resolution *string) (*models.Complaint, error)
	DeleteFunc       func(ctx context.Context, caller *models.Identity, complaintID string) error
}

func (m *MockComplaintService) Create(ctx context.Context, caller *models.Identity, in services.ComplaintInput) (*models.Complaint, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, caller, in)
	}
	return nil, models.ErrInternalServer
}

func (m *MockComplaintService) List(ctx context.Context, caller *models.Identity, status string, limit, offset int) ([]*models.Complaint, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, caller, status, limit, offset)
	}
	return []*models.Complaint{}, nil
}

func (m *MockComplaintService) Get(ctx context.Context, caller *models.Identity, id string) (*models.Complaint, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, caller, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockComplaintService) Assign(ctx context.Context, caller *models.Identity, complaintID, facultyID string) (*models.Complaint, error) {
	if m.AssignFunc != nil {
		return m.AssignFunc(ctx, caller, complaintID, facultyID)
	}
	return nil, models.ErrNotFound
}

func (m *MockComplaintService) UpdateStatus(ctx context.Context, caller *models.Identity, complaintID, status string, resolution *string) (*models.Complaint, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, caller, complaintID, status, resolution)
	}
	return nil, models.ErrNotFound
}

func (m *MockComplaintService) Delete(ctx context.Context, caller *models.Identity, complaintID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, caller, complaintID)
	}
	return nil
}

// newTestIdentity builds a sanitized identity for handler tests.
func newTestIdentity(role models.Role) *models.Identity {
	now := time.Now()
	return &models.Identity{
		ID:        uuid.New().String(),
		Role:      role,
		Name:      "Test User",
		Username:  "testuser",
		Email:     "test@campus.edu",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// newAuthedRequest builds a request carrying an authenticated identity, as if
// the auth middleware had run.
func newAuthedRequest(method, target string, body string, ident *models.Identity) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if ident != nil {
		r = r.WithContext(auth.WithIdentity(r.Context(), ident))
	}
	return r
}
