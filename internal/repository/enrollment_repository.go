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

// EnrollmentRepository handles the student ↔ subject enrollment edges.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository creates a new repository instance.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Exists reports whether the enrollment edge is present. Absence is a
// plain false, not an error; the caller decides it means Forbidden.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID, subjectID string) (bool, error) {
	const query = `SELECT 1 FROM student_subjects WHERE student_id = $1 AND subject_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// Create persists a new enrollment edge.
func (r *EnrollmentRepository) Create(ctx context.Context, edge *models.StudentSubject) error {
	if edge.ID == "" {
		edge.ID = uuid.NewString()
	}
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO student_subjects (id, student_id, subject_id, created_at) VALUES (:id, :student_id, :subject_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, edge); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// ListSubjectsByStudent resolves a student's enrollment edges into
// subjects with their batch names joined.
func (r *EnrollmentRepository) ListSubjectsByStudent(ctx context.Context, studentID string) ([]models.SubjectDetail, error) {
	const query = `SELECT sub.id, sub.name, sub.batch_id, sub.created_at, sub.updated_at, b.name AS batch_name
FROM student_subjects ss
JOIN subjects sub ON sub.id = ss.subject_id
JOIN batches b ON b.id = sub.batch_id
WHERE ss.student_id = $1
ORDER BY ss.created_at`
	var subjects []models.SubjectDetail
	if err := r.db.SelectContext(ctx, &subjects, query, studentID); err != nil {
		return nil, fmt.Errorf("list subjects of student: %w", err)
	}
	return subjects, nil
}

// DeleteBySubject removes every enrollment edge of a subject. Used by the
// subject delete cascade.
func (r *EnrollmentRepository) DeleteBySubject(ctx context.Context, subjectID string) (int64, error) {
	const query = `DELETE FROM student_subjects WHERE subject_id = $1`
	res, err := r.db.ExecContext(ctx, query, subjectID)
	if err != nil {
		return 0, fmt.Errorf("delete enrollments of subject: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete enrollments of subject: %w", err)
	}
	return count, nil
}
