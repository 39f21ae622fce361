package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type mockAttendanceRepo struct {
	session      *models.Attendance
	sessionErr   error
	exists       bool
	existsErr    error
	created      *models.Attendance
	entries      []models.AttendanceEntry
	registerRows []models.AttendanceRegisterRow
	historyRows  []models.AttendanceHistoryRow
	historyErr   error
	historyCalls int
	finalized    []string
}

func (m *mockAttendanceRepo) FindSessionByID(ctx context.Context, id string) (*models.Attendance, error) {
	if m.sessionErr != nil {
		return nil, m.sessionErr
	}
	if m.session == nil {
		return nil, sql.ErrNoRows
	}
	return m.session, nil
}

func (m *mockAttendanceRepo) SessionExists(ctx context.Context, batchID, subjectID string, date time.Time) (bool, error) {
	return m.exists, m.existsErr
}

func (m *mockAttendanceRepo) CreateSession(ctx context.Context, session *models.Attendance) error {
	session.ID = "att-1"
	m.created = session
	return nil
}

func (m *mockAttendanceRepo) FinalizeSession(ctx context.Context, id string) error {
	m.finalized = append(m.finalized, id)
	return nil
}

func (m *mockAttendanceRepo) UpsertEntry(ctx context.Context, entry *models.AttendanceEntry) (*models.AttendanceEntry, error) {
	entry.ID = "entry-" + entry.StudentID
	m.entries = append(m.entries, *entry)
	return entry, nil
}

func (m *mockAttendanceRepo) SessionRegister(ctx context.Context, attendanceID string) ([]models.AttendanceRegisterRow, error) {
	return m.registerRows, nil
}

func (m *mockAttendanceRepo) StudentHistory(ctx context.Context, studentID string) ([]models.AttendanceHistoryRow, error) {
	m.historyCalls++
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return m.historyRows, nil
}

type mockGate struct {
	allowed map[string]bool
	calls   int
}

func (m *mockGate) RequireSubjectAccess(ctx context.Context, studentID, subjectID string) error {
	m.calls++
	if m.allowed[subjectID] {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "you are not enrolled in this subject")
}

type mockBatchReader struct {
	batches map[string]*models.Batch
}

func (m *mockBatchReader) FindByID(ctx context.Context, id string) (*models.Batch, error) {
	if b, ok := m.batches[id]; ok {
		return b, nil
	}
	return nil, sql.ErrNoRows
}

type mockSubjectReader struct {
	subjects map[string]*models.Subject
}

func (m *mockSubjectReader) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockStudentReader struct {
	students map[string]*models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func newAttendanceService(repo *mockAttendanceRepo, gate *mockGate, batches *mockBatchReader, subjects *mockSubjectReader, students *mockStudentReader) *AttendanceService {
	if gate == nil {
		gate = &mockGate{allowed: map[string]bool{}}
	}
	if batches == nil {
		batches = &mockBatchReader{}
	}
	if subjects == nil {
		subjects = &mockSubjectReader{}
	}
	if students == nil {
		students = &mockStudentReader{}
	}
	cacheSvc := NewCacheService(nil, nil, time.Minute, zap.NewNop(), false)
	return NewAttendanceService(repo, gate, batches, subjects, students, cacheSvc, nil, zap.NewNop())
}

func historyRow(entryID string, status models.AttendanceStatus, recorded time.Time, subjectID string) models.AttendanceHistoryRow {
	return models.AttendanceHistoryRow{
		EntryID:     entryID,
		Status:      status,
		RecordedAt:  recorded,
		SessionID:   strPtr("sess-" + entryID),
		SessionDate: timePtr(recorded.Truncate(24 * time.Hour)),
		SubjectID:   strPtr(subjectID),
		SubjectName: strPtr("Mathematics"),
		BatchName:   strPtr("Batch A"),
		IsFinal:     boolPtr(true),
	}
}

func TestStudentHistoryEmpty(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := newAttendanceService(repo, nil, nil, nil, nil)

	history, err := svc.StudentHistory(context.Background(), "stu-1", "")
	require.NoError(t, err)
	assert.Empty(t, history.Entries)
	assert.Equal(t, 0, history.Statistics.TotalClasses)
	assert.Equal(t, 0, history.Statistics.Present)
	assert.Equal(t, 0, history.Statistics.Absent)
	assert.Equal(t, 0.0, history.Statistics.Percentage)
}

func TestStudentHistoryPercentageRounding(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockAttendanceRepo{historyRows: []models.AttendanceHistoryRow{
		historyRow("e1", models.AttendancePresent, now, "sub-1"),
		historyRow("e2", models.AttendancePresent, now.Add(-time.Hour), "sub-1"),
		historyRow("e3", models.AttendanceAbsent, now.Add(-2*time.Hour), "sub-1"),
	}}
	svc := newAttendanceService(repo, nil, nil, nil, nil)

	history, err := svc.StudentHistory(context.Background(), "stu-1", "")
	require.NoError(t, err)
	assert.Equal(t, 3, history.Statistics.TotalClasses)
	assert.Equal(t, 2, history.Statistics.Present)
	assert.Equal(t, 1, history.Statistics.Absent)
	assert.Equal(t, 66.67, history.Statistics.Percentage)
}

func TestStudentHistorySkipsOrphanEntries(t *testing.T) {
	now := time.Now().UTC()
	orphan := models.AttendanceHistoryRow{
		EntryID:    "orphan",
		Status:     models.AttendanceAbsent,
		RecordedAt: now,
	}
	repo := &mockAttendanceRepo{historyRows: []models.AttendanceHistoryRow{
		orphan,
		historyRow("e1", models.AttendancePresent, now.Add(-time.Hour), "sub-1"),
	}}
	svc := newAttendanceService(repo, nil, nil, nil, nil)

	history, err := svc.StudentHistory(context.Background(), "stu-1", "")
	require.NoError(t, err)
	// The orphan contributes to neither the list nor any counter.
	assert.Len(t, history.Entries, 1)
	assert.Equal(t, 1, history.Statistics.TotalClasses)
	assert.Equal(t, 1, history.Statistics.Present)
	assert.Equal(t, 0, history.Statistics.Absent)
	assert.Equal(t, 100.0, history.Statistics.Percentage)
}

func TestStudentHistorySubjectFilter(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockAttendanceRepo{historyRows: []models.AttendanceHistoryRow{
		historyRow("e1", models.AttendancePresent, now, "sub-1"),
		historyRow("e2", models.AttendanceAbsent, now.Add(-time.Hour), "sub-2"),
		historyRow("e3", models.AttendancePresent, now.Add(-2*time.Hour), "sub-1"),
	}}
	gate := &mockGate{allowed: map[string]bool{"sub-1": true}}
	svc := newAttendanceService(repo, gate, nil, nil, nil)

	history, err := svc.StudentHistory(context.Background(), "stu-1", "sub-1")
	require.NoError(t, err)
	assert.Len(t, history.Entries, 2)
	assert.Equal(t, 2, history.Statistics.TotalClasses)
	assert.Equal(t, 2, history.Statistics.Present)
	assert.Equal(t, 100.0, history.Statistics.Percentage)
	for _, entry := range history.Entries {
		assert.Equal(t, "sub-1", entry.SubjectID)
	}
}

func TestStudentHistoryUnenrolledFilterForbidden(t *testing.T) {
	repo := &mockAttendanceRepo{historyRows: []models.AttendanceHistoryRow{
		historyRow("e1", models.AttendancePresent, time.Now().UTC(), "sub-2"),
	}}
	gate := &mockGate{allowed: map[string]bool{}}
	svc := newAttendanceService(repo, gate, nil, nil, nil)

	_, err := svc.StudentHistory(context.Background(), "stu-1", "sub-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	// The deny happens before any attendance data is read.
	assert.Equal(t, 0, repo.historyCalls)
	assert.Equal(t, 1, gate.calls)
}

func TestStudentHistoryOrdering(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockAttendanceRepo{historyRows: []models.AttendanceHistoryRow{
		historyRow("newest", models.AttendancePresent, now, "sub-1"),
		historyRow("older", models.AttendanceAbsent, now.Add(-time.Hour), "sub-1"),
	}}
	svc := newAttendanceService(repo, nil, nil, nil, nil)

	history, err := svc.StudentHistory(context.Background(), "stu-1", "")
	require.NoError(t, err)
	require.Len(t, history.Entries, 2)
	assert.Equal(t, "newest", history.Entries[0].EntryID)
	assert.Equal(t, "older", history.Entries[1].EntryID)
}

func TestCreateSessionDuplicateDate(t *testing.T) {
	repo := &mockAttendanceRepo{exists: true}
	batches := &mockBatchReader{batches: map[string]*models.Batch{"b1": {ID: "b1", Name: "Batch A"}}}
	subjects := &mockSubjectReader{subjects: map[string]*models.Subject{"s1": {ID: "s1", BatchID: "b1"}}}
	svc := newAttendanceService(repo, nil, batches, subjects, nil)

	_, err := svc.CreateSession(context.Background(), CreateSessionRequest{BatchID: "b1", SubjectID: "s1", Date: "2026-09-01"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateSessionSubjectBatchMismatch(t *testing.T) {
	repo := &mockAttendanceRepo{}
	batches := &mockBatchReader{batches: map[string]*models.Batch{"b1": {ID: "b1"}}}
	subjects := &mockSubjectReader{subjects: map[string]*models.Subject{"s1": {ID: "s1", BatchID: "other"}}}
	svc := newAttendanceService(repo, nil, batches, subjects, nil)

	_, err := svc.CreateSession(context.Background(), CreateSessionRequest{BatchID: "b1", SubjectID: "s1", Date: "2026-09-01"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateSessionSuccess(t *testing.T) {
	repo := &mockAttendanceRepo{}
	batches := &mockBatchReader{batches: map[string]*models.Batch{"b1": {ID: "b1"}}}
	subjects := &mockSubjectReader{subjects: map[string]*models.Subject{"s1": {ID: "s1", BatchID: "b1"}}}
	svc := newAttendanceService(repo, nil, batches, subjects, nil)

	session, err := svc.CreateSession(context.Background(), CreateSessionRequest{BatchID: "b1", SubjectID: "s1", Date: "2026-09-01", TakenBy: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, "att-1", session.ID)
	assert.Equal(t, "user-1", session.TakenBy)
	require.NotNil(t, repo.created)
	assert.Equal(t, "2026-09-01", repo.created.Date.Format("2006-01-02"))
}

func TestMarkEntryRejectsFinalizedSession(t *testing.T) {
	repo := &mockAttendanceRepo{session: &models.Attendance{ID: "att-1", IsFinal: true}}
	students := &mockStudentReader{students: map[string]*models.Student{"stu-1": {ID: "stu-1"}}}
	svc := newAttendanceService(repo, nil, nil, nil, students)

	_, err := svc.MarkEntry(context.Background(), MarkEntryRequest{AttendanceID: "att-1", StudentID: "stu-1", Status: "PRESENT"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFinalized.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.entries)
}

func TestMarkEntryNormalizesStatus(t *testing.T) {
	repo := &mockAttendanceRepo{session: &models.Attendance{ID: "att-1"}}
	students := &mockStudentReader{students: map[string]*models.Student{"stu-1": {ID: "stu-1"}}}
	svc := newAttendanceService(repo, nil, nil, nil, students)

	entry, err := svc.MarkEntry(context.Background(), MarkEntryRequest{AttendanceID: "att-1", StudentID: "stu-1", Status: "present"})
	require.NoError(t, err)
	assert.Equal(t, models.AttendancePresent, entry.Status)
}

func TestMarkEntryInvalidStatus(t *testing.T) {
	repo := &mockAttendanceRepo{session: &models.Attendance{ID: "att-1"}}
	svc := newAttendanceService(repo, nil, nil, nil, nil)

	_, err := svc.MarkEntry(context.Background(), MarkEntryRequest{AttendanceID: "att-1", StudentID: "stu-1", Status: "LATE"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBulkMarkRejectsDuplicateStudents(t *testing.T) {
	repo := &mockAttendanceRepo{session: &models.Attendance{ID: "att-1"}}
	svc := newAttendanceService(repo, nil, nil, nil, nil)

	_, err := svc.BulkMark(context.Background(), BulkMarkRequest{
		AttendanceID: "att-1",
		Items: []BulkMarkItem{
			{StudentID: "stu-1", Status: "PRESENT"},
			{StudentID: "stu-1", Status: "ABSENT"},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.entries)
}

func TestBulkMarkWritesAllEntries(t *testing.T) {
	repo := &mockAttendanceRepo{session: &models.Attendance{ID: "att-1"}}
	svc := newAttendanceService(repo, nil, nil, nil, nil)

	entries, err := svc.BulkMark(context.Background(), BulkMarkRequest{
		AttendanceID: "att-1",
		Items: []BulkMarkItem{
			{StudentID: "stu-1", Status: "PRESENT"},
			{StudentID: "stu-2", Status: "absent"},
		},
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.AttendancePresent, entries[0].Status)
	assert.Equal(t, models.AttendanceAbsent, entries[1].Status)
}

func TestFinalizeIdempotent(t *testing.T) {
	repo := &mockAttendanceRepo{session: &models.Attendance{ID: "att-1", IsFinal: true}}
	svc := newAttendanceService(repo, nil, nil, nil, nil)

	session, err := svc.Finalize(context.Background(), "att-1")
	require.NoError(t, err)
	assert.True(t, session.IsFinal)
	assert.Empty(t, repo.finalized)
}

func TestFinalizeMarksSession(t *testing.T) {
	repo := &mockAttendanceRepo{session: &models.Attendance{ID: "att-1"}}
	svc := newAttendanceService(repo, nil, nil, nil, nil)

	session, err := svc.Finalize(context.Background(), "att-1")
	require.NoError(t, err)
	assert.True(t, session.IsFinal)
	assert.Equal(t, []string{"att-1"}, repo.finalized)
}

func TestFinalizeMissingSession(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := newAttendanceService(repo, nil, nil, nil, nil)

	_, err := svc.Finalize(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
