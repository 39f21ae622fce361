package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type subjectRepository interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ListByBatch(ctx context.Context, batchID string) ([]models.Subject, error)
	ExistsByNameInBatch(ctx context.Context, name, batchID, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	UpdateName(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	ListStudents(ctx context.Context, subjectID string) ([]models.Student, error)
}

type subjectBatchReader interface {
	FindByID(ctx context.Context, id string) (*models.Batch, error)
}

type subjectEnrollmentRepository interface {
	DeleteBySubject(ctx context.Context, subjectID string) (int64, error)
}

// SubjectService manages subjects within batches. Deleting a subject
// removes its enrollment edges; units and attendance history stay.
type SubjectService struct {
	repo        subjectRepository
	batches     subjectBatchReader
	enrollments subjectEnrollmentRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSubjectService constructs the subject service.
func NewSubjectService(repo subjectRepository, batches subjectBatchReader, enrollments subjectEnrollmentRepository, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, batches: batches, enrollments: enrollments, validator: validate, logger: logger}
}

// SubjectRequest carries a subject name for create and rename.
type SubjectRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

// Get returns one subject by id.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// Create adds a subject to a batch. Names are unique per batch; the
// same name may exist in other batches.
func (s *SubjectService) Create(ctx context.Context, batchID string, req SubjectRequest) (*models.Subject, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	if _, err := s.batches.FindByID(ctx, batchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}

	exists, err := s.repo.ExistsByNameInBatch(ctx, req.Name, batchID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject with this name already exists in this batch")
	}

	subject := &models.Subject{Name: req.Name, BatchID: batchID}
	if err := s.repo.Create(ctx, subject); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "subject with this name already exists in this batch")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return subject, nil
}

// Rename changes a subject's name within its batch. The subject itself
// is excluded from the uniqueness check, so renaming to the current
// name succeeds.
func (s *SubjectService) Rename(ctx context.Context, id string, req SubjectRequest) (*models.Subject, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	subject, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByNameInBatch(ctx, req.Name, subject.BatchID, subject.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject with this name already exists in this batch")
	}

	if err := s.repo.UpdateName(ctx, subject.ID, req.Name); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "subject with this name already exists in this batch")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rename subject")
	}
	subject.Name = req.Name
	return subject, nil
}

// Delete removes a subject and its enrollment edges. Units and
// attendance history keep pointing at the vanished subject.
func (s *SubjectService) Delete(ctx context.Context, id string) error {
	subject, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	removed, err := s.enrollments.DeleteBySubject(ctx, subject.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove enrollments")
	}
	if err := s.repo.Delete(ctx, subject.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	s.logger.Info("subject deleted", zap.String("subject_id", subject.ID), zap.Int64("enrollments_removed", removed))
	return nil
}

// ListStudents returns the students enrolled in a subject.
func (s *SubjectService) ListStudents(ctx context.Context, subjectID string) ([]models.Student, error) {
	if _, err := s.Get(ctx, subjectID); err != nil {
		return nil, err
	}
	students, err := s.repo.ListStudents(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subject students")
	}
	return students, nil
}
