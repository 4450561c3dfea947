package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/opencampus/redressal/internal/models"
)

// ComplaintStore is the persistence interface for complaints.
type ComplaintStore interface {
	Create(ctx context.Context, c *models.Complaint) (*models.Complaint, error)
	GetByID(ctx context.Context, id string) (*models.Complaint, error)
	List(ctx context.Context, filter models.ComplaintFilter) ([]*models.Complaint, error)
	Assign(ctx context.Context, id, facultyID string) (*models.Complaint, error)
	UpdateStatus(ctx context.Context, id, status string, resolution *string) (*models.Complaint, error)
	Delete(ctx context.Context, id string) error
}

const (
	defaultComplaintLimit = 20
	maxComplaintLimit     = 100
)

// ComplaintService enforces the role rules around complaints: students file
// and own them, faculty work the ones assigned to them, admins see and manage
// everything.
type ComplaintService struct {
	store    ComplaintStore
	resolver *IdentityResolver
	mailer   MailEnqueuer
	logger   *slog.Logger
}

func NewComplaintService(store ComplaintStore, resolver *IdentityResolver, mailer MailEnqueuer, logger *slog.Logger) *ComplaintService {
	return &ComplaintService{
		store:    store,
		resolver: resolver,
		mailer:   mailer,
		logger:   logger,
	}
}

// ComplaintInput is the validated payload for filing a complaint.
type ComplaintInput struct {
	Title       string
	Description string
	Category    string
}

// Create files a new complaint owned by the calling student.
func (s *ComplaintService) Create(ctx context.Context, caller *models.Identity, in ComplaintInput) (*models.Complaint, error) {
	if caller.Role != models.RoleStudent {
		return nil, models.ErrForbidden
	}

	complaint := &models.Complaint{
		StudentID:   caller.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.ToLower(strings.TrimSpace(in.Category)),
	}

	created, err := s.store.Create(ctx, complaint)
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			return nil, models.ErrBadRequest
		}
		s.logger.Error("failed to create complaint", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("complaint filed",
		slog.String("complaint_id", created.ID),
		slog.String("student_id", caller.ID),
	)
	return created, nil
}

// List returns the complaints visible to the caller. Students see their own,
// faculty see the ones assigned to them, admins see all. The status filter
// applies on top of that scope.
func (s *ComplaintService) List(ctx context.Context, caller *models.Identity, status string, limit, offset int) ([]*models.Complaint, error) {
	if status != "" && !models.ValidComplaintStatus(status) {
		return nil, models.ErrBadRequest
	}

	if limit <= 0 {
		limit = defaultComplaintLimit
	}
	if limit > maxComplaintLimit {
		limit = maxComplaintLimit
	}
	if offset < 0 {
		offset = 0
	}

	filter := models.ComplaintFilter{
		Status: status,
		Limit:  limit,
		Offset: offset,
	}

	switch caller.Role {
	case models.RoleStudent:
		filter.StudentID = caller.ID
	case models.RoleFaculty:
		filter.AssignedTo = caller.ID
	case models.RoleAdmin:
		// unscoped
	default:
		return nil, models.ErrForbidden
	}

	complaints, err := s.store.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list complaints", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return complaints, nil
}

// Get returns a single complaint if the caller may see it.
func (s *ComplaintService) Get(ctx context.Context, caller *models.Identity, id string) (*models.Complaint, error) {
	complaint, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load complaint", slog.String("complaint_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !s.canView(caller, complaint) {
		// Hide existence from callers outside the complaint's scope.
		return nil, models.ErrNotFound
	}
	return complaint, nil
}

func (s *ComplaintService) canView(caller *models.Identity, c *models.Complaint) bool {
	switch caller.Role {
	case models.RoleAdmin:
		return true
	case models.RoleStudent:
		return c.StudentID == caller.ID
	case models.RoleFaculty:
		return c.AssignedTo != nil && *c.AssignedTo == caller.ID
	default:
		return false
	}
}

// Assign routes a complaint to a faculty member and notifies them. Admin
// only. Assigning moves an open complaint to in_progress.
func (s *ComplaintService) Assign(ctx context.Context, caller *models.Identity, complaintID, facultyID string) (*models.Complaint, error) {
	if caller.Role != models.RoleAdmin {
		return nil, models.ErrForbidden
	}

	faculty, err := s.resolver.ResolveByIDInVariant(ctx, models.RoleFaculty, facultyID)
	if err != nil {
		if errors.Is(err, models.ErrStaleIdentity) {
			return nil, errors.Join(models.ErrBadRequest, errors.New("assignee is not a faculty member"))
		}
		s.logger.Error("failed to resolve assignee", slog.String("faculty_id", facultyID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	updated, err := s.store.Assign(ctx, complaintID, faculty.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to assign complaint",
			slog.String("complaint_id", complaintID),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.mailer.Enqueue(AssignmentEmail(faculty.Email, updated.Title))

	s.logger.Info("complaint assigned",
		slog.String("complaint_id", updated.ID),
		slog.String("faculty_id", faculty.ID),
	)
	return updated, nil
}

// UpdateStatus transitions a complaint. Admins may update any complaint;
// faculty only the ones assigned to them. Resolving or rejecting requires a
// resolution note.
func (s *ComplaintService) UpdateStatus(ctx context.Context, caller *models.Identity, complaintID, status string, resolution *string) (*models.Complaint, error) {
	if !models.ValidComplaintStatus(status) {
		return nil, models.ErrBadRequest
	}

	complaint, err := s.store.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load complaint", slog.String("complaint_id", complaintID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	switch caller.Role {
	case models.RoleAdmin:
	case models.RoleFaculty:
		if complaint.AssignedTo == nil || *complaint.AssignedTo != caller.ID {
			return nil, models.ErrForbidden
		}
	default:
		return nil, models.ErrForbidden
	}

	terminal := status == models.ComplaintResolved || status == models.ComplaintRejected
	if terminal && (resolution == nil || strings.TrimSpace(*resolution) == "") {
		return nil, errors.Join(models.ErrBadRequest, errors.New("a resolution note is required"))
	}
	if !terminal {
		resolution = nil
	}

	updated, err := s.store.UpdateStatus(ctx, complaintID, status, resolution)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update complaint status",
			slog.String("complaint_id", complaintID),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("complaint status updated",
		slog.String("complaint_id", updated.ID),
		slog.String("status", updated.Status),
	)
	return updated, nil
}

// Delete removes a complaint. Admins may delete any; a student may delete
// their own while it is still open.
func (s *ComplaintService) Delete(ctx context.Context, caller *models.Identity, complaintID string) error {
	complaint, err := s.store.GetByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to load complaint", slog.String("complaint_id", complaintID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	switch caller.Role {
	case models.RoleAdmin:
	case models.RoleStudent:
		if complaint.StudentID != caller.ID {
			return models.ErrNotFound
		}
		if complaint.Status != models.ComplaintOpen {
			return models.ErrForbidden
		}
	default:
		return models.ErrForbidden
	}

	if err := s.store.Delete(ctx, complaintID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete complaint", slog.String("complaint_id", complaintID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("complaint deleted",
		slog.String("complaint_id", complaintID),
		slog.String("deleted_by", caller.ID),
	)
	return nil
}
