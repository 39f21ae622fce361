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

// AttendanceRepository persists roll-call sessions and their entries.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// FindSessionByID returns an attendance session by id.
func (r *AttendanceRepository) FindSessionByID(ctx context.Context, id string) (*models.Attendance, error) {
	const query = `SELECT id, batch_id, subject_id, date, taken_by, is_final, created_at, updated_at FROM attendances WHERE id = $1`
	var session models.Attendance
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// SessionExists checks the (batch, subject, date) uniqueness invariant:
// at most one roll-call per subject per day.
func (r *AttendanceRepository) SessionExists(ctx context.Context, batchID, subjectID string, date time.Time) (bool, error) {
	const query = `SELECT 1 FROM attendances WHERE batch_id = $1 AND subject_id = $2 AND date = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, batchID, subjectID, date); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check attendance session: %w", err)
	}
	return true, nil
}

// CreateSession persists a new roll-call session.
func (r *AttendanceRepository) CreateSession(ctx context.Context, session *models.Attendance) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	const query = `INSERT INTO attendances (id, batch_id, subject_id, date, taken_by, is_final, created_at, updated_at)
VALUES (:id, :batch_id, :subject_id, :date, :taken_by, :is_final, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create attendance session: %w", err)
	}
	return nil
}

// FinalizeSession freezes a session. Finalizing twice is a no-op.
func (r *AttendanceRepository) FinalizeSession(ctx context.Context, id string) error {
	const query = `UPDATE attendances SET is_final = TRUE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("finalize attendance session: %w", err)
	}
	return nil
}

// UpsertEntry records one student's status within a session. Marking the
// same student again overwrites the previous status, keeping exactly one
// status per (attendance, student).
func (r *AttendanceRepository) UpsertEntry(ctx context.Context, entry *models.AttendanceEntry) (*models.AttendanceEntry, error) {
	now := time.Now().UTC()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	const query = `INSERT INTO attendance_entries (id, attendance_id, student_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (attendance_id, student_id)
DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
RETURNING id, attendance_id, student_id, status, created_at, updated_at`
	var stored models.AttendanceEntry
	if err := r.db.GetContext(ctx, &stored, query, entry.ID, entry.AttendanceID, entry.StudentID, entry.Status, entry.CreatedAt, entry.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert attendance entry: %w", err)
	}
	return &stored, nil
}

// SessionRegister lists the recorded entries of one session with student
// identity joined, in roll-number order.
func (r *AttendanceRepository) SessionRegister(ctx context.Context, attendanceID string) ([]models.AttendanceRegisterRow, error) {
	const query = `SELECT ae.student_id, s.roll_number, s.name AS student_name, ae.status
FROM attendance_entries ae
JOIN students s ON s.id = ae.student_id
WHERE ae.attendance_id = $1
ORDER BY s.roll_number`
	var rows []models.AttendanceRegisterRow
	if err := r.db.SelectContext(ctx, &rows, query, attendanceID); err != nil {
		return nil, fmt.Errorf("attendance session register: %w", err)
	}
	return rows, nil
}

// StudentHistory fetches every entry of a student, most recently recorded
// first, with the parent session left-joined. Orphaned entries come back
// with nil session columns; filtering them (and any subject scoping) is
// application-space work, not a store predicate.
func (r *AttendanceRepository) StudentHistory(ctx context.Context, studentID string) ([]models.AttendanceHistoryRow, error) {
	const query = `SELECT ae.id AS entry_id, ae.status, ae.created_at AS recorded_at,
a.id AS session_id, a.date AS session_date, a.subject_id, sub.name AS subject_name, b.name AS batch_name, a.is_final
FROM attendance_entries ae
LEFT JOIN attendances a ON a.id = ae.attendance_id
LEFT JOIN subjects sub ON sub.id = a.subject_id
LEFT JOIN batches b ON b.id = a.batch_id
WHERE ae.student_id = $1
ORDER BY ae.created_at DESC`
	var rows []models.AttendanceHistoryRow
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("student attendance history: %w", err)
	}
	return rows, nil
}
