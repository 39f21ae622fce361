package models

import "time"

// StudentSubject is the enrollment edge between a student and a subject.
// The pair is unique: a student enrolls in a subject at most once. It is
// the sole authorization gate for a student to read a subject's units,
// materials and attendance.
type StudentSubject struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
