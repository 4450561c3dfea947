package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/opencampus/redressal/internal/database"
	"github.com/opencampus/redressal/internal/models"
)

// VerificationCodeRepository is the persistence side of the one-time-code
// ledger. Replace-on-issue keeps at most one live code per email.
type VerificationCodeRepository struct {
	db *database.DB
}

func NewVerificationCodeRepository(db *database.DB) *VerificationCodeRepository {
	return &VerificationCodeRepository{db: db}
}

func scanCodeRow(scanner rowScanner) (*models.VerificationCode, error) {
	var code models.VerificationCode
	err := scanner.Scan(&code.ID, &code.Email, &code.Code, &code.ExpiresAt, &code.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &code, nil
}

// Replace deletes every prior code for the email and inserts the new one in
// a single transaction, so two racing issues cannot leave two live codes.
func (r *VerificationCodeRepository) Replace(ctx context.Context, email, code string, expiresAt time.Time) (*models.VerificationCode, error) {
	var created *models.VerificationCode
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM verification_codes WHERE email = $1`, email); err != nil {
			return database.MapPostgresError(err)
		}

		var err error
		created, err = scanCodeRow(tx.QueryRow(ctx, `
			INSERT INTO verification_codes (id, email, code, expires_at, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, email, code, expires_at, created_at
		`, uuid.New().String(), email, code, expiresAt, time.Now()))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to replace verification code: %w", err)
	}

	return created, nil
}

// GetLatestByEmail returns the newest code for an email, expired or not; the
// ledger service decides how an expired record fails.
func (r *VerificationCodeRepository) GetLatestByEmail(ctx context.Context, email string) (*models.VerificationCode, error) {
	return scanCodeRow(r.db.Pool.QueryRow(ctx, `
		SELECT id, email, code, expires_at, created_at
		FROM verification_codes
		WHERE email = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, email))
}

func (r *VerificationCodeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM verification_codes WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeleteExpired is the passive sweep: stale codes are already treated as
// absent on read, this keeps them from accumulating unbounded.
func (r *VerificationCodeRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM verification_codes WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired verification codes: %w", err)
	}
	return result.RowsAffected(), nil
}
