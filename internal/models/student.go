package models

import "time"

// Student belongs to exactly one batch at a time. Students do not store a
// refresh token; their refresh credentials are stateless and cannot be
// revoked server-side.
type Student struct {
	ID           string    `db:"id" json:"id"`
	RollNumber   string    `db:"roll_number" json:"roll_number"`
	Name         string    `db:"name" json:"name"`
	Mobile       string    `db:"mobile" json:"mobile"`
	PasswordHash string    `db:"password_hash" json:"-"`
	ParentName   string    `db:"parent_name" json:"parent_name"`
	ParentMobile string    `db:"parent_mobile" json:"parent_mobile"`
	BatchID      string    `db:"batch_id" json:"batch_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail is a student joined with the owning batch name.
type StudentDetail struct {
	Student
	BatchName string `db:"batch_name" json:"batch_name"`
}
