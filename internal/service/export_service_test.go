package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type mockExportAttendance struct {
	session *models.Attendance
	rows    []models.AttendanceRegisterRow
	err     error
}

func (m *mockExportAttendance) Register(ctx context.Context, attendanceID string) (*models.Attendance, []models.AttendanceRegisterRow, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.session, m.rows, nil
}

type mockExportSubjects struct {
	subject *models.Subject
}

func (m *mockExportSubjects) Get(ctx context.Context, id string) (*models.Subject, error) {
	if m.subject != nil {
		return m.subject, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
}

func exportFixture() *ExportService {
	attendance := &mockExportAttendance{
		session: &models.Attendance{ID: "att-1", SubjectID: "sub-1", Date: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)},
		rows: []models.AttendanceRegisterRow{
			{StudentID: "stu-1", RollNumber: "R-1", StudentName: "Bob", Status: models.AttendancePresent},
			{StudentID: "stu-2", RollNumber: "R-2", StudentName: "Carol", Status: models.AttendanceAbsent},
		},
	}
	subjects := &mockExportSubjects{subject: &models.Subject{ID: "sub-1", Name: "Mathematics"}}
	return NewExportService(attendance, subjects, zap.NewNop())
}

func TestSessionRegisterCSV(t *testing.T) {
	svc := exportFixture()

	result, err := svc.SessionRegister(context.Background(), "att-1", ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "attendance_mathematics_2026-09-01.csv", result.Filename)

	content := string(result.Content)
	assert.True(t, strings.HasPrefix(content, "Roll Number,Student,Status"))
	assert.Contains(t, content, "R-1,Bob,PRESENT")
	assert.Contains(t, content, "R-2,Carol,ABSENT")
}

func TestSessionRegisterPDF(t *testing.T) {
	svc := exportFixture()

	result, err := svc.SessionRegister(context.Background(), "att-1", "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, "attendance_mathematics_2026-09-01.pdf", result.Filename)
	assert.True(t, strings.HasPrefix(string(result.Content), "%PDF"))
}

func TestSessionRegisterUnsupportedFormat(t *testing.T) {
	svc := exportFixture()

	_, err := svc.SessionRegister(context.Background(), "att-1", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSessionRegisterPropagatesNotFound(t *testing.T) {
	attendance := &mockExportAttendance{err: appErrors.Clone(appErrors.ErrNotFound, "attendance session not found")}
	svc := NewExportService(attendance, &mockExportSubjects{}, zap.NewNop())

	_, err := svc.SessionRegister(context.Background(), "missing", ExportCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
