package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// UnitRepository handles persistence for syllabus units.
type UnitRepository struct {
	db *sqlx.DB
}

// NewUnitRepository creates a new repository instance.
func NewUnitRepository(db *sqlx.DB) *UnitRepository {
	return &UnitRepository{db: db}
}

// FindByID returns a unit by id.
func (r *UnitRepository) FindByID(ctx context.Context, id string) (*models.Unit, error) {
	const query = `SELECT id, subject_id, title, created_at, updated_at FROM units WHERE id = $1`
	var unit models.Unit
	if err := r.db.GetContext(ctx, &unit, query, id); err != nil {
		return nil, err
	}
	return &unit, nil
}

// ListBySubject returns a subject's units in syllabus order (oldest first).
func (r *UnitRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.Unit, error) {
	const query = `SELECT id, subject_id, title, created_at, updated_at FROM units WHERE subject_id = $1 ORDER BY created_at ASC`
	var units []models.Unit
	if err := r.db.SelectContext(ctx, &units, query, subjectID); err != nil {
		return nil, fmt.Errorf("list units of subject: %w", err)
	}
	return units, nil
}

// ExistsByTitleInSubject checks unit title uniqueness within a subject.
func (r *UnitRepository) ExistsByTitleInSubject(ctx context.Context, title, subjectID, excludeID string) (bool, error) {
	query := "SELECT 1 FROM units WHERE title = $1 AND subject_id = $2"
	args := []interface{}{title, subjectID}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}

	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check unit title: %w", err)
	}
	return true, nil
}

// Create persists a new unit.
func (r *UnitRepository) Create(ctx context.Context, unit *models.Unit) error {
	if unit.ID == "" {
		unit.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if unit.CreatedAt.IsZero() {
		unit.CreatedAt = now
	}
	unit.UpdatedAt = now

	const query = `INSERT INTO units (id, subject_id, title, created_at, updated_at) VALUES (:id, :subject_id, :title, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, unit); err != nil {
		return fmt.Errorf("create unit: %w", err)
	}
	return nil
}

// UpdateTitle renames a unit.
func (r *UnitRepository) UpdateTitle(ctx context.Context, id, title string) error {
	const query = `UPDATE units SET title = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, title, time.Now().UTC()); err != nil {
		return fmt.Errorf("rename unit: %w", err)
	}
	return nil
}

// Delete removes a unit row. Materials of the unit are left orphaned.
func (r *UnitRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM units WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete unit: %w", err)
	}
	return nil
}
