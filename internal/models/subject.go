package models

import "time"

// Subject is a course offered within a batch. Names are unique within
// their batch, not globally.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	BatchID   string    `db:"batch_id" json:"batch_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectDetail is a subject joined with its batch name.
type SubjectDetail struct {
	Subject
	BatchName string `db:"batch_name" json:"batch_name"`
}
