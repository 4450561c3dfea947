package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	pkglogger "github.com/opencampus/redressal/pkg/logger"

	"github.com/opencampus/redressal/internal/models"
)

// VerificationCodeStore is the persistence interface for the code ledger.
type VerificationCodeStore interface {
	Replace(ctx context.Context, email, code string, expiresAt time.Time) (*models.VerificationCode, error)
	GetLatestByEmail(ctx context.Context, email string) (*models.VerificationCode, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// CodeLedger issues and validates short-lived one-time codes bound to an
// email. Codes are single use and replaced, not appended, on re-issue.
type CodeLedger struct {
	store  VerificationCodeStore
	ttl    time.Duration
	logger *slog.Logger
}

func NewCodeLedger(store VerificationCodeStore, ttl time.Duration, logger *slog.Logger) *CodeLedger {
	return &CodeLedger{
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// generateCode draws a uniformly random 6-digit code. Fixed-width string so
// leading zeros survive.
func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < models.CodeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}

	return fmt.Sprintf("%0*d", models.CodeLength, n), nil
}

// Issue creates a fresh code for the email, invalidating any prior one, and
// returns its plaintext. Delivery is the caller's concern.
func (l *CodeLedger) Issue(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	code, err := generateCode()
	if err != nil {
		return "", err
	}

	record, err := l.store.Replace(ctx, email, code, time.Now().Add(l.ttl))
	if err != nil {
		return "", err
	}

	l.logger.Info("verification code issued",
		slog.String("email", pkglogger.MaskedEmail(email)),
		slog.Time("expires_at", record.ExpiresAt),
	)
	return code, nil
}

// Verify checks a submitted code. Outcomes are mutually exclusive and tested
// in order: existence, expiry, match. An expired record is deleted as a side
// effect so it cannot linger; a successful match consumes the code.
func (l *CodeLedger) Verify(ctx context.Context, email, submitted string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	record, err := l.store.GetLatestByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrCodeNotFound
		}
		return err
	}

	if record.IsExpired() {
		if err := l.store.Delete(ctx, record.ID); err != nil && !errors.Is(err, models.ErrNotFound) {
			l.logger.Error("failed to delete expired verification code",
				slog.String("code_id", record.ID),
				slog.Any("error", err))
		}
		return models.ErrCodeExpired
	}

	if subtle.ConstantTimeCompare([]byte(record.Code), []byte(submitted)) != 1 {
		return models.ErrCodeMismatch
	}

	// Single use: a code that matched is gone.
	if err := l.store.Delete(ctx, record.ID); err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}

	l.logger.Info("verification code consumed",
		slog.String("email", pkglogger.MaskedEmail(email)))
	return nil
}

// Sweep removes expired codes; called periodically by the cleanup manager.
func (l *CodeLedger) Sweep(ctx context.Context) (int64, error) {
	return l.store.DeleteExpired(ctx)
}
