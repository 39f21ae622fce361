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

// SubjectRepository handles persistence for subjects.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// FindByID returns a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, name, batch_id, created_at, updated_at FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// ListByBatch returns the subjects of one batch.
func (r *SubjectRepository) ListByBatch(ctx context.Context, batchID string) ([]models.Subject, error) {
	const query = `SELECT id, name, batch_id, created_at, updated_at FROM subjects WHERE batch_id = $1 ORDER BY name`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, batchID); err != nil {
		return nil, fmt.Errorf("list subjects of batch: %w", err)
	}
	return subjects, nil
}

// ExistsByNameInBatch checks subject name uniqueness within a batch.
// Names may repeat across batches.
func (r *SubjectRepository) ExistsByNameInBatch(ctx context.Context, name, batchID, excludeID string) (bool, error) {
	query := "SELECT 1 FROM subjects WHERE name = $1 AND batch_id = $2"
	args := []interface{}{name, batchID}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}

	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check subject name: %w", err)
	}
	return true, nil
}

// Create persists a new subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = now
	}
	subject.UpdatedAt = now

	const query = `INSERT INTO subjects (id, name, batch_id, created_at, updated_at) VALUES (:id, :name, :batch_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// UpdateName renames a subject.
func (r *SubjectRepository) UpdateName(ctx context.Context, id, name string) error {
	const query = `UPDATE subjects SET name = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, name, time.Now().UTC()); err != nil {
		return fmt.Errorf("rename subject: %w", err)
	}
	return nil
}

// Delete removes a subject row. The enrollment edge cascade is handled by
// the service; units and materials are deliberately left alone.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM subjects WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}

// ListStudents resolves the enrollment edges of a subject into student
// rows. Password hashes are not selected.
func (r *SubjectRepository) ListStudents(ctx context.Context, subjectID string) ([]models.Student, error) {
	const query = `SELECT s.id, s.roll_number, s.name, s.mobile, s.parent_name, s.parent_mobile, s.batch_id, s.created_at, s.updated_at
FROM student_subjects ss
JOIN students s ON s.id = ss.student_id
WHERE ss.subject_id = $1
ORDER BY s.roll_number`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, subjectID); err != nil {
		return nil, fmt.Errorf("list students of subject: %w", err)
	}
	return students, nil
}
