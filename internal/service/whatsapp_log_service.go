package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type whatsAppLogRepository interface {
	Create(ctx context.Context, log *models.WhatsAppLog) error
	ListByAttendance(ctx context.Context, attendanceID string) ([]models.WhatsAppLog, error)
	List(ctx context.Context, page, pageSize int) ([]models.WhatsAppLog, int, error)
}

type whatsAppAttendanceReader interface {
	FindSessionByID(ctx context.Context, id string) (*models.Attendance, error)
}

// WhatsAppLogService records delivery outcomes for parent notifications.
// The log is append-only; entries are never updated or removed.
type WhatsAppLogService struct {
	repo       whatsAppLogRepository
	attendance whatsAppAttendanceReader
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewWhatsAppLogService constructs the log service.
func NewWhatsAppLogService(repo whatsAppLogRepository, attendance whatsAppAttendanceReader, validate *validator.Validate, logger *zap.Logger) *WhatsAppLogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WhatsAppLogService{repo: repo, attendance: attendance, validator: validate, logger: logger}
}

// RecordDeliveryRequest captures one delivery attempt.
type RecordDeliveryRequest struct {
	AttendanceID string `json:"attendance_id"`
	StudentID    string `json:"student_id"`
	ParentMobile string `json:"parent_mobile" validate:"required,min=8,max=20"`
	Status       string `json:"status" validate:"required,oneof=SENT FAILED sent failed"`
	Response     []byte `json:"response"`
}

// Record appends one delivery outcome.
func (s *WhatsAppLogService) Record(ctx context.Context, req RecordDeliveryRequest) (*models.WhatsAppLog, error) {
	req.ParentMobile = strings.TrimSpace(req.ParentMobile)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	if req.AttendanceID != "" {
		if _, err := s.attendance.FindSessionByID(ctx, req.AttendanceID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance session not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
		}
	}

	entry := &models.WhatsAppLog{
		ParentMobile: req.ParentMobile,
		Status:       models.WhatsAppStatus(strings.ToUpper(req.Status)),
		Response:     req.Response,
	}
	if req.AttendanceID != "" {
		entry.AttendanceID = &req.AttendanceID
	}
	if req.StudentID != "" {
		entry.StudentID = &req.StudentID
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record delivery")
	}
	return entry, nil
}

// ListByAttendance returns the delivery log for one session.
func (s *WhatsAppLogService) ListByAttendance(ctx context.Context, attendanceID string) ([]models.WhatsAppLog, error) {
	if _, err := s.attendance.FindSessionByID(ctx, attendanceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	logs, err := s.repo.ListByAttendance(ctx, attendanceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list delivery log")
	}
	return logs, nil
}

// List returns a page of the delivery log, newest first.
func (s *WhatsAppLogService) List(ctx context.Context, page, pageSize int) ([]models.WhatsAppLog, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	logs, total, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list delivery log")
	}
	return logs, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}
