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

// StudentRepository handles persistence for students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new repository instance.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns every student. The password hash is never selected for
// listing queries.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	const query = `SELECT id, roll_number, name, mobile, parent_name, parent_mobile, batch_id, created_at, updated_at FROM students ORDER BY created_at DESC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// ListByBatch returns the students of one batch with the batch name joined.
func (r *StudentRepository) ListByBatch(ctx context.Context, batchID string) ([]models.StudentDetail, error) {
	const query = `SELECT s.id, s.roll_number, s.name, s.mobile, s.parent_name, s.parent_mobile, s.batch_id, s.created_at, s.updated_at, b.name AS batch_name
FROM students s
JOIN batches b ON b.id = s.batch_id
WHERE s.batch_id = $1
ORDER BY s.roll_number`
	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, batchID); err != nil {
		return nil, fmt.Errorf("list students of batch: %w", err)
	}
	return students, nil
}

// FindByID returns a student by id, including the password hash for
// credential checks.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, roll_number, name, mobile, password_hash, parent_name, parent_mobile, batch_id, created_at, updated_at FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindDetailByID returns a student joined with the owning batch name.
func (r *StudentRepository) FindDetailByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	const query = `SELECT s.id, s.roll_number, s.name, s.mobile, s.parent_name, s.parent_mobile, s.batch_id, s.created_at, s.updated_at, b.name AS batch_name
FROM students s
JOIN batches b ON b.id = s.batch_id
WHERE s.id = $1`
	var student models.StudentDetail
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByMobile returns a student by mobile number.
func (r *StudentRepository) FindByMobile(ctx context.Context, mobile string) (*models.Student, error) {
	const query = `SELECT id, roll_number, name, mobile, password_hash, parent_name, parent_mobile, batch_id, created_at, updated_at FROM students WHERE mobile = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, mobile); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsByMobile checks system-wide uniqueness of the student mobile.
func (r *StudentRepository) ExistsByMobile(ctx context.Context, mobile string) (bool, error) {
	const query = `SELECT 1 FROM students WHERE mobile = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, mobile); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student mobile: %w", err)
	}
	return true, nil
}

// ExistsByRollNumberInBatch checks roll number uniqueness within a batch.
func (r *StudentRepository) ExistsByRollNumberInBatch(ctx context.Context, rollNumber, batchID string) (bool, error) {
	const query = `SELECT 1 FROM students WHERE roll_number = $1 AND batch_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, rollNumber, batchID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check roll number: %w", err)
	}
	return true, nil
}

// Create persists a new student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now

	const query = `INSERT INTO students (id, roll_number, name, mobile, password_hash, parent_name, parent_mobile, batch_id, created_at, updated_at)
VALUES (:id, :roll_number, :name, :mobile, :password_hash, :parent_name, :parent_mobile, :batch_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Delete removes a single student.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM students WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

// DeleteByBatch removes every student of a batch. Used by the batch
// delete cascade.
func (r *StudentRepository) DeleteByBatch(ctx context.Context, batchID string) (int64, error) {
	const query = `DELETE FROM students WHERE batch_id = $1`
	res, err := r.db.ExecContext(ctx, query, batchID)
	if err != nil {
		return 0, fmt.Errorf("delete students of batch: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete students of batch: %w", err)
	}
	return count, nil
}

// UpdateBatch re-assigns one student to another batch.
func (r *StudentRepository) UpdateBatch(ctx context.Context, id, batchID string) error {
	const query = `UPDATE students SET batch_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, batchID, time.Now().UTC()); err != nil {
		return fmt.Errorf("update student batch: %w", err)
	}
	return nil
}

// MoveBatch re-assigns every student from one batch to another and returns
// how many rows moved.
func (r *StudentRepository) MoveBatch(ctx context.Context, fromBatchID, toBatchID string) (int64, error) {
	const query = `UPDATE students SET batch_id = $2, updated_at = $3 WHERE batch_id = $1`
	res, err := r.db.ExecContext(ctx, query, fromBatchID, toBatchID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("move students between batches: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("move students between batches: %w", err)
	}
	return count, nil
}
