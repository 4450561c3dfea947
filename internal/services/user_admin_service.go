package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/opencampus/redressal/internal/models"
)

const (
	defaultUserLimit = 20
	maxUserLimit     = 100
)

// UserAdminService exposes the administrative view over the identity stores:
// listing, inspecting and removing accounts of any variant.
type UserAdminService struct {
	resolver *IdentityResolver
	logger   *slog.Logger
}

func NewUserAdminService(resolver *IdentityResolver, logger *slog.Logger) *UserAdminService {
	return &UserAdminService{resolver: resolver, logger: logger}
}

// List returns sanitized identities of one variant, paginated.
func (s *UserAdminService) List(ctx context.Context, role models.Role, limit, offset int) ([]*models.Identity, error) {
	if !role.Valid() {
		return nil, models.ErrUnsupportedRole
	}

	if limit <= 0 {
		limit = defaultUserLimit
	}
	if limit > maxUserLimit {
		limit = maxUserLimit
	}
	if offset < 0 {
		offset = 0
	}

	idents, err := s.resolver.store.List(ctx, role, limit, offset)
	if err != nil {
		s.logger.Error("failed to list identities", slog.String("role", string(role)), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	sanitized := make([]*models.Identity, 0, len(idents))
	for _, ident := range idents {
		sanitized = append(sanitized, ident.Sanitized())
	}
	return sanitized, nil
}

// Get returns a single sanitized identity from the named variant.
func (s *UserAdminService) Get(ctx context.Context, role models.Role, id string) (*models.Identity, error) {
	ident, err := s.resolver.ResolveByIDInVariant(ctx, role, id)
	if err != nil {
		if errors.Is(err, models.ErrStaleIdentity) {
			return nil, models.ErrNotFound
		}
		if errors.Is(err, models.ErrUnsupportedRole) {
			return nil, models.ErrUnsupportedRole
		}
		s.logger.Error("failed to load identity", slog.String("identity_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return ident.Sanitized(), nil
}

// Delete removes an identity. An admin cannot delete their own account
// through this path.
func (s *UserAdminService) Delete(ctx context.Context, caller *models.Identity, role models.Role, id string) error {
	if !role.Valid() {
		return models.ErrUnsupportedRole
	}
	if role == models.RoleAdmin && id == caller.ID {
		return errors.Join(models.ErrBadRequest, errors.New("cannot delete your own account"))
	}

	if err := s.resolver.store.Delete(ctx, role, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete identity",
			slog.String("identity_id", id),
			slog.String("role", string(role)),
			slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("identity deleted",
		slog.String("identity_id", id),
		slog.String("role", string(role)),
		slog.String("deleted_by", caller.ID),
	)
	return nil
}
