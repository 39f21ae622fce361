package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// WhatsAppLogRepository persists the append-only delivery audit trail.
// There are no update or delete operations on purpose.
type WhatsAppLogRepository struct {
	db *sqlx.DB
}

// NewWhatsAppLogRepository constructs the repository.
func NewWhatsAppLogRepository(db *sqlx.DB) *WhatsAppLogRepository {
	return &WhatsAppLogRepository{db: db}
}

// Create appends a delivery record.
func (r *WhatsAppLogRepository) Create(ctx context.Context, log *models.WhatsAppLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO whatsapp_logs (id, attendance_id, student_id, parent_mobile, status, response, created_at)
VALUES (:id, :attendance_id, :student_id, :parent_mobile, :status, :response, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create whatsapp log: %w", err)
	}
	return nil
}

// ListByAttendance returns the delivery records of one session.
func (r *WhatsAppLogRepository) ListByAttendance(ctx context.Context, attendanceID string) ([]models.WhatsAppLog, error) {
	const query = `SELECT id, attendance_id, student_id, parent_mobile, status, response, created_at
FROM whatsapp_logs WHERE attendance_id = $1 ORDER BY created_at DESC`
	var logs []models.WhatsAppLog
	if err := r.db.SelectContext(ctx, &logs, query, attendanceID); err != nil {
		return nil, fmt.Errorf("list whatsapp logs: %w", err)
	}
	return logs, nil
}

// List returns the newest delivery records with simple paging.
func (r *WhatsAppLogRepository) List(ctx context.Context, page, pageSize int) ([]models.WhatsAppLog, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT id, attendance_id, student_id, parent_mobile, status, response, created_at
FROM whatsapp_logs ORDER BY created_at DESC LIMIT %d OFFSET %d`, pageSize, offset)
	var logs []models.WhatsAppLog
	if err := r.db.SelectContext(ctx, &logs, query); err != nil {
		return nil, 0, fmt.Errorf("list whatsapp logs: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM whatsapp_logs`); err != nil {
		return nil, 0, fmt.Errorf("count whatsapp logs: %w", err)
	}
	return logs, total, nil
}
