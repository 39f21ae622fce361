package models

import "time"

// AttendanceStatus is the closed set of per-entry statuses.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
)

// Valid reports whether the status belongs to the closed set.
func (s AttendanceStatus) Valid() bool {
	return s == AttendancePresent || s == AttendanceAbsent
}

// Attendance is one roll-call session: at most one per (batch, subject,
// date). Once finalized the entry set is frozen.
type Attendance struct {
	ID        string    `db:"id" json:"id"`
	BatchID   string    `db:"batch_id" json:"batch_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	Date      time.Time `db:"date" json:"date"`
	TakenBy   string    `db:"taken_by" json:"taken_by"`
	IsFinal   bool      `db:"is_final" json:"is_final"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AttendanceEntry is one student's recorded status within a session.
// The (attendance, student) pair is unique.
type AttendanceEntry struct {
	ID           string           `db:"id" json:"id"`
	AttendanceID string           `db:"attendance_id" json:"attendance_id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	Status       AttendanceStatus `db:"status" json:"status"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceHistoryRow is an entry left-joined with its parent session.
// Session columns are pointers: a vanished session leaves them nil and the
// row is excluded from statistics entirely.
type AttendanceHistoryRow struct {
	EntryID     string           `db:"entry_id"`
	Status      AttendanceStatus `db:"status"`
	RecordedAt  time.Time        `db:"recorded_at"`
	SessionID   *string          `db:"session_id"`
	SessionDate *time.Time       `db:"session_date"`
	SubjectID   *string          `db:"subject_id"`
	SubjectName *string          `db:"subject_name"`
	BatchName   *string          `db:"batch_name"`
	IsFinal     *bool            `db:"is_final"`
}

// AttendanceHistoryItem is the cooked view of a valid history row.
type AttendanceHistoryItem struct {
	EntryID     string           `json:"entry_id"`
	Status      AttendanceStatus `json:"status"`
	RecordedAt  time.Time        `json:"recorded_at"`
	Date        time.Time        `json:"date"`
	SubjectID   string           `json:"subject_id"`
	SubjectName string           `json:"subject_name"`
	BatchName   string           `json:"batch_name"`
	IsFinal     bool             `json:"is_final"`
}

// AttendanceSummary aggregates a student's entries. Present and absent are
// counted independently; percentage is present/total rounded to two
// decimal places, zero when there is no history.
type AttendanceSummary struct {
	TotalClasses int     `json:"total_classes"`
	Present      int     `json:"present"`
	Absent       int     `json:"absent"`
	Percentage   float64 `json:"percentage"`
}

// AttendanceHistory is the student-facing aggregation result.
type AttendanceHistory struct {
	Entries    []AttendanceHistoryItem `json:"entries"`
	Statistics AttendanceSummary       `json:"statistics"`
}

// AttendanceRegisterRow is one line of a session register.
type AttendanceRegisterRow struct {
	StudentID   string           `db:"student_id" json:"student_id"`
	RollNumber  string           `db:"roll_number" json:"roll_number"`
	StudentName string           `db:"student_name" json:"student_name"`
	Status      AttendanceStatus `db:"status" json:"status"`
}
