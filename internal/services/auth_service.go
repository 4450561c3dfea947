package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	pkgauth "github.com/opencampus/redressal/pkg/auth"
	pkglogger "github.com/opencampus/redressal/pkg/logger"

	"github.com/opencampus/redressal/internal/auth"
	"github.com/opencampus/redressal/internal/models"
)

// AuthService handles signup, login and self-service account operations for
// every variant. The admin verification flow lives in its own service.
type AuthService struct {
	resolver *IdentityResolver
	tm       *auth.TokenManager
	logger   *slog.Logger
	audit    *pkglogger.AuditLogger
}

func NewAuthService(resolver *IdentityResolver, tm *auth.TokenManager, logger *slog.Logger, audit *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		resolver: resolver,
		tm:       tm,
		logger:   logger,
		audit:    audit,
	}
}

// AuthResponse carries a fresh bearer token and the sanitized identity.
type AuthResponse struct {
	Token    string           `json:"token"`
	Identity *models.Identity `json:"identity"`
}

// SignupInput is the validated payload for identity creation.
type SignupInput struct {
	Role       models.Role
	Name       string
	Username   string
	Email      string
	Password   string
	Department string
	Year       int
	Title      string
}

// Signup creates an identity in the requested variant and logs it in.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResponse, error) {
	if err := pkgauth.ValidatePassword(in.Password); err != nil {
		return nil, errors.Join(models.ErrBadRequest, err)
	}

	ident := &models.Identity{
		Name:       strings.TrimSpace(in.Name),
		Username:   in.Username,
		Email:      in.Email,
		Department: strings.TrimSpace(in.Department),
		Year:       in.Year,
		Title:      strings.TrimSpace(in.Title),
	}

	created, err := s.resolver.CreateInVariant(ctx, in.Role, ident, in.Password)
	if err != nil {
		if errors.Is(err, models.ErrConflict) || errors.Is(err, models.ErrUnsupportedRole) {
			return nil, err
		}
		s.logger.Error("failed to create identity", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	token, err := s.tm.Generate(created.ID, created.Role)
	if err != nil {
		s.logger.Error("failed to issue token", slog.String("identity_id", created.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.LogAuthEvent(pkglogger.AuditEvent{
		EventType:  "signup",
		IdentityID: created.ID,
		Role:       string(created.Role),
		Success:    true,
	})

	return &AuthResponse{Token: token, Identity: created.Sanitized()}, nil
}

// Login authenticates a username-or-email plus password, optionally scoped
// to one variant. Unknown identity and wrong password are indistinguishable
// to the caller.
func (s *AuthService) Login(ctx context.Context, usernameOrEmail, password string, hint models.Role) (*AuthResponse, error) {
	ident, err := s.resolver.ResolveForLogin(ctx, usernameOrEmail, hint)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrUnsupportedRole) {
			s.audit.LogAuthEvent(pkglogger.AuditEvent{
				EventType: "login_failed",
				Reason:    "invalid_credentials",
			})
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("identity resolution failed during login", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !s.resolver.VerifyCredential(ident, password) {
		s.audit.LogAuthEvent(pkglogger.AuditEvent{
			EventType:  "login_failed",
			IdentityID: ident.ID,
			Role:       string(ident.Role),
			Reason:     "invalid_credentials",
		})
		return nil, models.ErrUnauthorized
	}

	token, err := s.tm.Generate(ident.ID, ident.Role)
	if err != nil {
		s.logger.Error("failed to issue token", slog.String("identity_id", ident.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.LogAuthEvent(pkglogger.AuditEvent{
		EventType:  "login_success",
		IdentityID: ident.ID,
		Role:       string(ident.Role),
		Success:    true,
	})

	return &AuthResponse{Token: token, Identity: ident.Sanitized()}, nil
}

// ProfileUpdate carries the mutable, non-credential fields. Role changes are
// rejected upstream; there is no path through here that can touch role or
// credential state.
type ProfileUpdate struct {
	Name       string
	Department string
	Year       int
	Title      string
}

// UpdateProfile applies non-zero patch fields to the caller's identity.
func (s *AuthService) UpdateProfile(ctx context.Context, ident *models.Identity, patch ProfileUpdate) (*models.Identity, error) {
	current, err := s.resolver.ResolveByIDInVariant(ctx, ident.Role, ident.ID)
	if err != nil {
		if errors.Is(err, models.ErrStaleIdentity) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load identity for update", slog.String("identity_id", ident.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if patch.Name != "" {
		current.Name = strings.TrimSpace(patch.Name)
	}
	if patch.Department != "" {
		current.Department = strings.TrimSpace(patch.Department)
	}
	if patch.Year != 0 {
		current.Year = patch.Year
	}
	if patch.Title != "" {
		current.Title = strings.TrimSpace(patch.Title)
	}

	updated, err := s.resolver.store.UpdateProfile(ctx, ident.Role, ident.ID, current)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update profile", slog.String("identity_id", ident.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("profile updated", slog.String("identity_id", ident.ID))
	return updated.Sanitized(), nil
}

// ChangePassword verifies the current credential before storing a hash of
// the new one. This is the only path that recomputes the hash.
func (s *AuthService) ChangePassword(ctx context.Context, ident *models.Identity, currentPassword, newPassword string) error {
	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return errors.Join(models.ErrBadRequest, err)
	}

	// The context identity is sanitized; reload with the hash.
	full, err := s.resolver.ResolveByIDInVariant(ctx, ident.Role, ident.ID)
	if err != nil {
		if errors.Is(err, models.ErrStaleIdentity) {
			return models.ErrUnauthorized
		}
		s.logger.Error("failed to load identity for password change", slog.String("identity_id", ident.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if !s.resolver.VerifyCredential(full, currentPassword) {
		s.audit.LogAuthEvent(pkglogger.AuditEvent{
			EventType:  "password_change_failed",
			IdentityID: ident.ID,
			Role:       string(ident.Role),
			Reason:     "invalid_credentials",
		})
		return models.ErrUnauthorized
	}

	hash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.resolver.store.UpdatePassword(ctx, ident.Role, ident.ID, hash); err != nil {
		s.logger.Error("failed to store new password", slog.String("identity_id", ident.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.LogAuthEvent(pkglogger.AuditEvent{
		EventType:  "password_changed",
		IdentityID: ident.ID,
		Role:       string(ident.Role),
		Success:    true,
	})
	return nil
}

// CheckAvailability reports whether a username or email is already taken
// anywhere in the identity space.
func (s *AuthService) CheckAvailability(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error) {
	usernameTaken, emailTaken, err = s.resolver.ExistsUsernameOrEmail(ctx, username, email)
	if err != nil {
		s.logger.Error("availability check failed", slog.Any("error", err))
		return false, false, models.ErrInternalServer
	}
	return usernameTaken, emailTaken, nil
}
