package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	pkglogger "github.com/opencampus/redressal/pkg/logger"

	"github.com/opencampus/redressal/internal/auth"
	"github.com/opencampus/redressal/internal/models"
)

// MailEnqueuer is the slice of the mailer the verification flow needs.
type MailEnqueuer interface {
	Enqueue(msg EmailMessage) bool
}

// AdminVerificationService drives the three-step admin login flow: request a
// code, verify it, then authenticate with the password. Each step is an
// independent request; none carries state into the next beyond the ledger row.
type AdminVerificationService struct {
	resolver *IdentityResolver
	ledger   *CodeLedger
	mailer   MailEnqueuer
	tm       *auth.TokenManager
	codeTTL  time.Duration
	logger   *slog.Logger
	audit    *pkglogger.AuditLogger
}

func NewAdminVerificationService(
	resolver *IdentityResolver,
	ledger *CodeLedger,
	mailer MailEnqueuer,
	tm *auth.TokenManager,
	codeTTL time.Duration,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
) *AdminVerificationService {
	return &AdminVerificationService{
		resolver: resolver,
		ledger:   ledger,
		mailer:   mailer,
		tm:       tm,
		codeTTL:  codeTTL,
		logger:   logger,
		audit:    audit,
	}
}

// RequestCode issues a fresh one-time code for the admin owning the given
// username or email and queues it for delivery. Mail transport cannot fail
// the request; only a missing admin or a ledger write error can.
func (s *AdminVerificationService) RequestCode(ctx context.Context, usernameOrEmail string) error {
	admin, err := s.resolver.ResolveForLogin(ctx, usernameOrEmail, models.RoleAdmin)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("admin lookup failed during code request", slog.Any("error", err))
		return models.ErrInternalServer
	}

	code, err := s.ledger.Issue(ctx, admin.Email)
	if err != nil {
		s.logger.Error("failed to issue verification code",
			slog.String("identity_id", admin.ID),
			slog.Any("error", err))
		return models.ErrInternalServer
	}

	ttlMinutes := int(s.codeTTL.Minutes())
	s.mailer.Enqueue(VerificationCodeEmail(admin.Email, code, ttlMinutes))

	s.audit.LogAuthEvent(pkglogger.AuditEvent{
		EventType:  "admin_code_requested",
		IdentityID: admin.ID,
		Role:       string(models.RoleAdmin),
		Email:      admin.Email,
		Success:    true,
	})
	return nil
}

// VerifyCode checks a submitted code against the ledger. The distinct ledger
// errors (absent, expired, mismatch) pass through so the caller can report
// which check failed.
func (s *AdminVerificationService) VerifyCode(ctx context.Context, email, code string) error {
	err := s.ledger.Verify(ctx, email, code)
	if err == nil {
		s.audit.LogAuthEvent(pkglogger.AuditEvent{
			EventType: "admin_code_verified",
			Role:      string(models.RoleAdmin),
			Email:     email,
			Success:   true,
		})
		return nil
	}

	switch {
	case errors.Is(err, models.ErrCodeNotFound),
		errors.Is(err, models.ErrCodeExpired),
		errors.Is(err, models.ErrCodeMismatch):
		s.audit.LogAuthEvent(pkglogger.AuditEvent{
			EventType: "admin_code_rejected",
			Role:      string(models.RoleAdmin),
			Email:     email,
			Reason:    err.Error(),
		})
		return err
	default:
		s.logger.Error("verification code check failed", slog.Any("error", err))
		return models.ErrInternalServer
	}
}

// Login is the final step: password authentication scoped to the admin
// variant. Unknown admin and wrong password both come back as a generic
// unauthorized.
func (s *AdminVerificationService) Login(ctx context.Context, usernameOrEmail, password string) (*AuthResponse, error) {
	admin, err := s.resolver.ResolveForLogin(ctx, usernameOrEmail, models.RoleAdmin)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.audit.LogAuthEvent(pkglogger.AuditEvent{
				EventType: "admin_login_failed",
				Role:      string(models.RoleAdmin),
				Reason:    "invalid_credentials",
			})
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("admin lookup failed during login", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !s.resolver.VerifyCredential(admin, password) {
		s.audit.LogAuthEvent(pkglogger.AuditEvent{
			EventType:  "admin_login_failed",
			IdentityID: admin.ID,
			Role:       string(models.RoleAdmin),
			Reason:     "invalid_credentials",
		})
		return nil, models.ErrUnauthorized
	}

	token, err := s.tm.Generate(admin.ID, models.RoleAdmin)
	if err != nil {
		s.logger.Error("failed to issue admin token", slog.String("identity_id", admin.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.LogAuthEvent(pkglogger.AuditEvent{
		EventType:  "admin_login_success",
		IdentityID: admin.ID,
		Role:       string(models.RoleAdmin),
		Success:    true,
	})

	return &AuthResponse{Token: token, Identity: admin.Sanitized()}, nil
}
