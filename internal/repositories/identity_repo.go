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

// identityTables maps a role to its variant table. Every query goes through
// this map, so an unknown role can never reach SQL.
var identityTables = map[models.Role]string{
	models.RoleStudent: "students",
	models.RoleFaculty: "faculty",
	models.RoleAdmin:   "admins",
}

const identityColumns = "id, name, username, email, password_hash, department, year, title, password_changed_at, created_at, updated_at"

// IdentityRepository persists identity records, one table per variant. The
// tables share a schema, so one scan path serves all three.
type IdentityRepository struct {
	db *database.DB
}

func NewIdentityRepository(db *database.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

func identityTable(role models.Role) (string, error) {
	table, ok := identityTables[role]
	if !ok {
		return "", fmt.Errorf("%w: %q", models.ErrUnsupportedRole, role)
	}
	return table, nil
}

// rowScanner covers both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIdentityRow(scanner rowScanner, role models.Role) (*models.Identity, error) {
	var ident models.Identity
	var department, title *string
	var year *int
	var passwordChangedAt *time.Time

	err := scanner.Scan(
		&ident.ID, &ident.Name, &ident.Username, &ident.Email,
		&ident.PasswordHash, &department, &year, &title,
		&passwordChangedAt, &ident.CreatedAt, &ident.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	ident.Role = role
	if department != nil {
		ident.Department = *department
	}
	if year != nil {
		ident.Year = *year
	}
	if title != nil {
		ident.Title = *title
	}
	ident.PasswordChangedAt = passwordChangedAt

	return &ident, nil
}

func scanIdentityRows(rows pgx.Rows, role models.Role) ([]*models.Identity, error) {
	defer rows.Close()

	identities := make([]*models.Identity, 0)

	for rows.Next() {
		ident, err := scanIdentityRow(rows, role)
		if err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		identities = append(identities, ident)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating identity rows: %w", err)
	}

	return identities, nil
}

// nullable converts zero values to NULL so unused profile columns stay empty.
func nullableStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableInt(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}

// Create inserts the identity into its variant table and claims the email in
// identity_emails inside one transaction. The unique constraints are the
// authoritative guard against duplicate usernames and emails; pre-checks in
// the resolver only improve error messages under no contention.
func (r *IdentityRepository) Create(ctx context.Context, ident *models.Identity) (*models.Identity, error) {
	table, err := identityTable(ident.Role)
	if err != nil {
		return nil, err
	}

	ident.ID = uuid.New().String()
	now := time.Now()
	ident.CreatedAt = now
	ident.UpdatedAt = now

	var created *models.Identity
	err = r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO identity_emails (email, identity_id, role) VALUES ($1, $2, $3)`,
			ident.Email, ident.ID, string(ident.Role),
		)
		if err != nil {
			return database.MapPostgresError(err)
		}

		query := fmt.Sprintf(`
			INSERT INTO %s (id, name, username, email, password_hash, department, year, title, password_changed_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING %s
		`, table, identityColumns)

		created, err = scanIdentityRow(tx.QueryRow(ctx, query,
			ident.ID, ident.Name, ident.Username, ident.Email,
			ident.PasswordHash, nullableStr(ident.Department), nullableInt(ident.Year),
			nullableStr(ident.Title), ident.PasswordChangedAt, ident.CreatedAt, ident.UpdatedAt,
		), ident.Role)
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *IdentityRepository) GetByID(ctx context.Context, role models.Role, id string) (*models.Identity, error) {
	table, err := identityTable(role)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, identityColumns, table)
	return scanIdentityRow(r.db.Pool.QueryRow(ctx, query, id), role)
}

func (r *IdentityRepository) GetByUsername(ctx context.Context, role models.Role, username string) (*models.Identity, error) {
	table, err := identityTable(role)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE username = $1`, identityColumns, table)
	return scanIdentityRow(r.db.Pool.QueryRow(ctx, query, username), role)
}

func (r *IdentityRepository) GetByEmail(ctx context.Context, role models.Role, email string) (*models.Identity, error) {
	table, err := identityTable(role)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE email = $1`, identityColumns, table)
	return scanIdentityRow(r.db.Pool.QueryRow(ctx, query, email), role)
}

func (r *IdentityRepository) List(ctx context.Context, role models.Role, limit, offset int) ([]*models.Identity, error) {
	table, err := identityTable(role)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at DESC LIMIT $1 OFFSET $2`, identityColumns, table)
	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}

	return scanIdentityRows(rows, role)
}

// UpdateProfile writes the non-credential, non-role fields. The credential
// hash is untouched here; password changes go through UpdatePassword so the
// hash is only ever recomputed when the plaintext actually changed.
func (r *IdentityRepository) UpdateProfile(ctx context.Context, role models.Role, id string, ident *models.Identity) (*models.Identity, error) {
	table, err := identityTable(role)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET name = $1, department = $2, year = $3, title = $4, updated_at = $5
		WHERE id = $6
		RETURNING %s
	`, table, identityColumns)

	return scanIdentityRow(r.db.Pool.QueryRow(ctx, query,
		ident.Name, nullableStr(ident.Department), nullableInt(ident.Year),
		nullableStr(ident.Title), time.Now(), id,
	), role)
}

// UpdatePassword stores a freshly computed hash and stamps the change time.
func (r *IdentityRepository) UpdatePassword(ctx context.Context, role models.Role, id, passwordHash string) error {
	table, err := identityTable(role)
	if err != nil {
		return err
	}

	now := time.Now()
	query := fmt.Sprintf(`
		UPDATE %s SET password_hash = $1, password_changed_at = $2, updated_at = $3
		WHERE id = $4
	`, table)

	result, err := r.db.Pool.Exec(ctx, query, passwordHash, now, now, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes the identity and releases its email claim in one
// transaction. Owned complaints go with a student via ON DELETE CASCADE.
func (r *IdentityRepository) Delete(ctx context.Context, role models.Role, id string) error {
	table, err := identityTable(role)
	if err != nil {
		return err
	}

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var email string
		query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 RETURNING email`, table)
		if err := tx.QueryRow(ctx, query, id).Scan(&email); err != nil {
			return database.MapPostgresError(err)
		}

		_, err := tx.Exec(ctx, `DELETE FROM identity_emails WHERE email = $1`, email)
		if err != nil {
			return database.MapPostgresError(err)
		}
		return nil
	})
}

func (r *IdentityRepository) UsernameExists(ctx context.Context, role models.Role, username string) (bool, error) {
	table, err := identityTable(role)
	if err != nil {
		return false, err
	}

	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE username = $1)`, table)
	if err := r.db.Pool.QueryRow(ctx, query, username).Scan(&exists); err != nil {
		return false, database.MapPostgresError(err)
	}
	return exists, nil
}

// EmailExists consults the shared email index, covering all variants at once.
func (r *IdentityRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM identity_emails WHERE email = $1)`, email,
	).Scan(&exists)
	if err != nil {
		return false, database.MapPostgresError(err)
	}
	return exists, nil
}
