package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type attendanceRepository interface {
	FindSessionByID(ctx context.Context, id string) (*models.Attendance, error)
	SessionExists(ctx context.Context, batchID, subjectID string, date time.Time) (bool, error)
	CreateSession(ctx context.Context, session *models.Attendance) error
	FinalizeSession(ctx context.Context, id string) error
	UpsertEntry(ctx context.Context, entry *models.AttendanceEntry) (*models.AttendanceEntry, error)
	SessionRegister(ctx context.Context, attendanceID string) ([]models.AttendanceRegisterRow, error)
	StudentHistory(ctx context.Context, studentID string) ([]models.AttendanceHistoryRow, error)
}

type attendanceAccessGate interface {
	RequireSubjectAccess(ctx context.Context, studentID, subjectID string) error
}

type attendanceBatchReader interface {
	FindByID(ctx context.Context, id string) (*models.Batch, error)
}

type attendanceSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type attendanceStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// AttendanceService coordinates roll-call sessions and the student-facing
// aggregation view.
type AttendanceService struct {
	repo      attendanceRepository
	gate      attendanceAccessGate
	batches   attendanceBatchReader
	subjects  attendanceSubjectReader
	students  attendanceStudentReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, gate attendanceAccessGate, batches attendanceBatchReader, subjects attendanceSubjectReader, students attendanceStudentReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AttendanceService{repo: repo, gate: gate, batches: batches, subjects: subjects, students: students, cache: cache, validator: validate, logger: logger}
	svc.validator.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(strings.ToUpper(fl.Field().String())).Valid()
	})
	return svc
}

// CreateSessionRequest describes a new roll-call session.
type CreateSessionRequest struct {
	BatchID   string `json:"batch_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	Date      string `json:"date" validate:"required"`
	TakenBy   string `json:"-"`
}

// MarkEntryRequest records one student's status in a session.
type MarkEntryRequest struct {
	AttendanceID string `json:"attendance_id" validate:"required"`
	StudentID    string `json:"student_id" validate:"required"`
	Status       string `json:"status" validate:"required,attendance_status"`
}

// BulkMarkItem is one row of a bulk mark payload.
type BulkMarkItem struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,attendance_status"`
}

// BulkMarkRequest records statuses for multiple students at once.
type BulkMarkRequest struct {
	AttendanceID string         `json:"attendance_id" validate:"required"`
	Items        []BulkMarkItem `json:"items" validate:"required,min=1,dive"`
}

// CreateSession opens a roll-call session for a subject on a date. At
// most one session exists per (batch, subject, date).
func (s *AttendanceService) CreateSession(ctx context.Context, req CreateSessionRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
	}

	batch, err := s.batches.FindByID(ctx, req.BatchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}

	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if subject.BatchID != batch.ID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject does not belong to this batch")
	}

	exists, err := s.repo.SessionExists(ctx, batch.ID, subject.ID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check session")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "attendance already taken for this subject on this date")
	}

	session := &models.Attendance{
		BatchID:   batch.ID,
		SubjectID: subject.ID,
		Date:      date,
		TakenBy:   req.TakenBy,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "attendance already taken for this subject on this date")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	return session, nil
}

// MarkEntry records or overwrites one student's status in an open session.
func (s *AttendanceService) MarkEntry(ctx context.Context, req MarkEntryRequest) (*models.AttendanceEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	session, err := s.loadOpenSession(ctx, req.AttendanceID)
	if err != nil {
		return nil, err
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	entry := &models.AttendanceEntry{
		AttendanceID: session.ID,
		StudentID:    req.StudentID,
		Status:       models.AttendanceStatus(strings.ToUpper(req.Status)),
	}
	stored, err := s.repo.UpsertEntry(ctx, entry)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
	}

	s.invalidateSummaries(ctx, req.StudentID)
	return stored, nil
}

// BulkMark records statuses for several students within one session.
// Duplicate students in the payload are rejected before any write.
func (s *AttendanceService) BulkMark(ctx context.Context, req BulkMarkRequest) ([]models.AttendanceEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	session, err := s.loadOpenSession(ctx, req.AttendanceID)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	for _, item := range req.Items {
		if _, ok := seen[item.StudentID]; ok {
			return nil, appErrors.Clone(appErrors.ErrConflict, "duplicate student in payload")
		}
		seen[item.StudentID] = struct{}{}
	}

	entries := make([]models.AttendanceEntry, 0, len(req.Items))
	for _, item := range req.Items {
		stored, err := s.repo.UpsertEntry(ctx, &models.AttendanceEntry{
			AttendanceID: session.ID,
			StudentID:    item.StudentID,
			Status:       models.AttendanceStatus(strings.ToUpper(item.Status)),
		})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
		}
		entries = append(entries, *stored)
		s.invalidateSummaries(ctx, item.StudentID)
	}
	return entries, nil
}

// Finalize freezes a session. Finalizing an already-final session is a
// no-op success.
func (s *AttendanceService) Finalize(ctx context.Context, attendanceID string) (*models.Attendance, error) {
	session, err := s.repo.FindSessionByID(ctx, attendanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.IsFinal {
		return session, nil
	}
	if err := s.repo.FinalizeSession(ctx, session.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize session")
	}
	session.IsFinal = true
	return session, nil
}

// Register lists the recorded entries of one session.
func (s *AttendanceService) Register(ctx context.Context, attendanceID string) (*models.Attendance, []models.AttendanceRegisterRow, error) {
	session, err := s.repo.FindSessionByID(ctx, attendanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "attendance session not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	rows, err := s.repo.SessionRegister(ctx, session.ID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load register")
	}
	return session, rows, nil
}

// StudentHistory builds the student-facing aggregation: the filtered,
// most-recently-recorded-first entry list with session metadata, plus
// summary statistics.
//
// When a subject filter is supplied the enrollment gate runs first and a
// deny short-circuits before any attendance data is touched. The subject
// filter is applied to the fetched rows in application space, and entries
// whose parent session no longer resolves count toward neither the
// numerator nor the denominator.
func (s *AttendanceService) StudentHistory(ctx context.Context, studentID, subjectID string) (*models.AttendanceHistory, error) {
	if subjectID != "" {
		if err := s.gate.RequireSubjectAccess(ctx, studentID, subjectID); err != nil {
			return nil, err
		}
	}

	cacheKey := summaryCacheKey(studentID, subjectID)
	if s.cache.Enabled() {
		var cached models.AttendanceHistory
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	rows, err := s.repo.StudentHistory(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}

	history := aggregateHistory(rows, subjectID)

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, history, 0); err != nil {
			s.logger.Warn("failed to cache attendance summary", zap.String("student_id", studentID), zap.Error(err))
		}
	}
	return history, nil
}

func aggregateHistory(rows []models.AttendanceHistoryRow, subjectID string) *models.AttendanceHistory {
	items := make([]models.AttendanceHistoryItem, 0, len(rows))
	present := 0
	absent := 0
	for _, row := range rows {
		if row.SessionID == nil {
			continue
		}
		if subjectID != "" && (row.SubjectID == nil || *row.SubjectID != subjectID) {
			continue
		}
		item := models.AttendanceHistoryItem{
			EntryID:    row.EntryID,
			Status:     row.Status,
			RecordedAt: row.RecordedAt,
			SubjectID:  derefString(row.SubjectID),
		}
		if row.SessionDate != nil {
			item.Date = *row.SessionDate
		}
		item.SubjectName = derefString(row.SubjectName)
		item.BatchName = derefString(row.BatchName)
		if row.IsFinal != nil {
			item.IsFinal = *row.IsFinal
		}
		items = append(items, item)

		// Present and absent are counted independently; the total is the
		// number of valid entries, not their sum.
		if row.Status == models.AttendancePresent {
			present++
		}
		if row.Status == models.AttendanceAbsent {
			absent++
		}
	}

	total := len(items)
	percentage := 0.0
	if total > 0 {
		percentage = math.Round(float64(present)/float64(total)*100*100) / 100
	}

	return &models.AttendanceHistory{
		Entries: items,
		Statistics: models.AttendanceSummary{
			TotalClasses: total,
			Present:      present,
			Absent:       absent,
			Percentage:   percentage,
		},
	}
}

func (s *AttendanceService) loadOpenSession(ctx context.Context, attendanceID string) (*models.Attendance, error) {
	session, err := s.repo.FindSessionByID(ctx, attendanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.IsFinal {
		return nil, appErrors.Clone(appErrors.ErrFinalized, "attendance session is finalized")
	}
	return session, nil
}

func (s *AttendanceService) invalidateSummaries(ctx context.Context, studentID string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("attendance:summary:%s:*", studentID)); err != nil {
		s.logger.Warn("failed to invalidate attendance summary cache", zap.String("student_id", studentID), zap.Error(err))
	}
}

func summaryCacheKey(studentID, subjectID string) string {
	if subjectID == "" {
		subjectID = "all"
	}
	return fmt.Sprintf("attendance:summary:%s:%s", studentID, subjectID)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
