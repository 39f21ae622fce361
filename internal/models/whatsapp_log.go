package models

import "time"

// WhatsAppStatus is the delivery outcome recorded for a parent message.
type WhatsAppStatus string

const (
	WhatsAppSent   WhatsAppStatus = "SENT"
	WhatsAppFailed WhatsAppStatus = "FAILED"
)

// WhatsAppLog is an append-only delivery audit record. Rows are never
// updated or deleted by this service; delivery itself happens elsewhere.
type WhatsAppLog struct {
	ID           string         `db:"id" json:"id"`
	AttendanceID *string        `db:"attendance_id" json:"attendance_id,omitempty"`
	StudentID    *string        `db:"student_id" json:"student_id,omitempty"`
	ParentMobile string         `db:"parent_mobile" json:"parent_mobile"`
	Status       WhatsAppStatus `db:"status" json:"status"`
	Response     []byte         `db:"response" json:"response,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}
