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

const complaintColumns = "id, student_id, assigned_to, title, description, category, status, resolution, resolved_at, created_at, updated_at"

type ComplaintRepository struct {
	db *database.DB
}

func NewComplaintRepository(db *database.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

func scanComplaintRow(scanner rowScanner) (*models.Complaint, error) {
	var c models.Complaint
	err := scanner.Scan(
		&c.ID, &c.StudentID, &c.AssignedTo, &c.Title, &c.Description,
		&c.Category, &c.Status, &c.Resolution, &c.ResolvedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &c, nil
}

func scanComplaintRows(rows pgx.Rows) ([]*models.Complaint, error) {
	defer rows.Close()

	complaints := make([]*models.Complaint, 0)
	for rows.Next() {
		c, err := scanComplaintRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan complaint: %w", err)
		}
		complaints = append(complaints, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating complaint rows: %w", err)
	}

	return complaints, nil
}

func (r *ComplaintRepository) Create(ctx context.Context, c *models.Complaint) (*models.Complaint, error) {
	c.ID = uuid.New().String()
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = models.ComplaintOpen
	}
	if c.Category == "" {
		c.Category = "general"
	}

	query := fmt.Sprintf(`
		INSERT INTO complaints (id, student_id, assigned_to, title, description, category, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING %s
	`, complaintColumns)

	return scanComplaintRow(r.db.Pool.QueryRow(ctx, query,
		c.ID, c.StudentID, c.AssignedTo, c.Title, c.Description,
		c.Category, c.Status, c.CreatedAt, c.UpdatedAt,
	))
}

func (r *ComplaintRepository) GetByID(ctx context.Context, id string) (*models.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE id = $1`, complaintColumns)
	return scanComplaintRow(r.db.Pool.QueryRow(ctx, query, id))
}

// List returns complaints matching the filter, newest first.
func (r *ComplaintRepository) List(ctx context.Context, filter models.ComplaintFilter) ([]*models.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE 1=1`, complaintColumns)
	args := []interface{}{}

	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		query += fmt.Sprintf(" AND student_id = $%d", len(args))
	}
	if filter.AssignedTo != "" {
		args = append(args, filter.AssignedTo)
		query += fmt.Sprintf(" AND assigned_to = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query complaints: %w", err)
	}

	return scanComplaintRows(rows)
}

func (r *ComplaintRepository) Assign(ctx context.Context, id, facultyID string) (*models.Complaint, error) {
	query := fmt.Sprintf(`
		UPDATE complaints SET assigned_to = $1, status = $2, updated_at = $3
		WHERE id = $4
		RETURNING %s
	`, complaintColumns)

	return scanComplaintRow(r.db.Pool.QueryRow(ctx, query,
		facultyID, models.ComplaintInProgress, time.Now(), id,
	))
}

func (r *ComplaintRepository) UpdateStatus(ctx context.Context, id, status string, resolution *string) (*models.Complaint, error) {
	var resolvedAt *time.Time
	if status == models.ComplaintResolved || status == models.ComplaintRejected {
		now := time.Now()
		resolvedAt = &now
	}

	query := fmt.Sprintf(`
		UPDATE complaints SET status = $1, resolution = $2, resolved_at = $3, updated_at = $4
		WHERE id = $5
		RETURNING %s
	`, complaintColumns)

	return scanComplaintRow(r.db.Pool.QueryRow(ctx, query,
		status, resolution, resolvedAt, time.Now(), id,
	))
}

func (r *ComplaintRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM complaints WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
