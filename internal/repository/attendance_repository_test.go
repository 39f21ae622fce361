package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
)

func TestSessionExists(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM attendances WHERE batch_id = $1 AND subject_id = $2 AND date = $3 LIMIT 1")).
		WithArgs("b1", "sub-1", date).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.SessionExists(context.Background(), "b1", "sub-1", date)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionExistsNoRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT 1 FROM attendances").
		WithArgs("b1", "sub-1", date).
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.SessionExists(context.Background(), "b1", "sub-1", date)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindSessionByIDMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("SELECT id, batch_id, subject_id, date, taken_by, is_final").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindSessionByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSessionAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec("INSERT INTO attendances").WillReturnResult(sqlmock.NewResult(1, 1))

	session := &models.Attendance{BatchID: "b1", SubjectID: "sub-1", Date: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), TakenBy: "u1"}
	err := repo.CreateSession(context.Background(), session)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalizeSession(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendances SET is_final = TRUE, updated_at = $2 WHERE id = $1")).
		WithArgs("att-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.FinalizeSession(context.Background(), "att-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertEntryReturnsStoredRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "attendance_id", "student_id", "status", "created_at", "updated_at"}).
		AddRow("e1", "att-1", "stu-1", string(models.AttendancePresent), now, now)
	mock.ExpectQuery("INSERT INTO attendance_entries").WillReturnRows(rows)

	stored, err := repo.UpsertEntry(context.Background(), &models.AttendanceEntry{
		AttendanceID: "att-1",
		StudentID:    "stu-1",
		Status:       models.AttendancePresent,
	})
	require.NoError(t, err)
	assert.Equal(t, "e1", stored.ID)
	assert.Equal(t, models.AttendancePresent, stored.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRegisterOrderedByRollNumber(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"student_id", "roll_number", "student_name", "status"}).
		AddRow("stu-1", "R-01", "Bob", string(models.AttendancePresent)).
		AddRow("stu-2", "R-02", "Carol", string(models.AttendanceAbsent))
	mock.ExpectQuery("FROM attendance_entries ae").
		WithArgs("att-1").
		WillReturnRows(rows)

	register, err := repo.SessionRegister(context.Background(), "att-1")
	require.NoError(t, err)
	require.Len(t, register, 2)
	assert.Equal(t, "R-01", register[0].RollNumber)
	assert.Equal(t, models.AttendanceAbsent, register[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentHistoryKeepsOrphanRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"entry_id", "status", "recorded_at", "session_id", "session_date", "subject_id", "subject_name", "batch_name", "is_final"}).
		AddRow("e2", string(models.AttendanceAbsent), now, "att-1", now, "sub-1", "Math", "2026", true).
		AddRow("e1", string(models.AttendancePresent), now.Add(-time.Hour), nil, nil, nil, nil, nil, nil)
	mock.ExpectQuery("FROM attendance_entries ae").
		WithArgs("stu-1").
		WillReturnRows(rows)

	history, err := repo.StudentHistory(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.NotNil(t, history[0].SessionID)
	assert.Equal(t, "att-1", *history[0].SessionID)
	assert.Nil(t, history[1].SessionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
