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

type batchRepository interface {
	List(ctx context.Context) ([]models.Batch, error)
	FindByID(ctx context.Context, id string) (*models.Batch, error)
	ExistsByName(ctx context.Context, name string, excludeID string) (bool, error)
	Create(ctx context.Context, batch *models.Batch) error
	UpdateName(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
}

type batchStudentRepository interface {
	ListByBatch(ctx context.Context, batchID string) ([]models.StudentDetail, error)
	DeleteByBatch(ctx context.Context, batchID string) (int64, error)
	MoveBatch(ctx context.Context, fromBatchID, toBatchID string) (int64, error)
}

type batchSubjectRepository interface {
	ListByBatch(ctx context.Context, batchID string) ([]models.Subject, error)
}

// BatchService manages batch lifecycle. Deleting a batch removes its
// students first; subjects, units, and attendance records survive.
type BatchService struct {
	repo      batchRepository
	students  batchStudentRepository
	subjects  batchSubjectRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBatchService constructs the batch service.
func NewBatchService(repo batchRepository, students batchStudentRepository, subjects batchSubjectRepository, validate *validator.Validate, logger *zap.Logger) *BatchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{repo: repo, students: students, subjects: subjects, validator: validate, logger: logger}
}

// BatchRequest carries a batch name for create and rename.
type BatchRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

// List returns all batches, newest first.
func (s *BatchService) List(ctx context.Context) ([]models.Batch, error) {
	batches, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batches")
	}
	return batches, nil
}

// Get returns one batch by id.
func (s *BatchService) Get(ctx context.Context, id string) (*models.Batch, error) {
	batch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	return batch, nil
}

// Create adds a batch with a globally unique name.
func (s *BatchService) Create(ctx context.Context, req BatchRequest) (*models.Batch, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	exists, err := s.repo.ExistsByName(ctx, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check batch name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "batch with this name already exists")
	}

	batch := &models.Batch{Name: req.Name}
	if err := s.repo.Create(ctx, batch); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "batch with this name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create batch")
	}
	return batch, nil
}

// Rename changes a batch's name. The uniqueness check runs against all
// batches, so renaming a batch to its current name is rejected.
func (s *BatchService) Rename(ctx context.Context, id string, req BatchRequest) (*models.Batch, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	batch, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByName(ctx, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check batch name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "batch with this name already exists")
	}

	if err := s.repo.UpdateName(ctx, batch.ID, req.Name); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "batch with this name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rename batch")
	}
	batch.Name = req.Name
	return batch, nil
}

// Delete removes a batch together with its students. Subjects and
// attendance history referencing the batch are left in place.
func (s *BatchService) Delete(ctx context.Context, id string) error {
	batch, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	removed, err := s.students.DeleteByBatch(ctx, batch.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove batch students")
	}
	if err := s.repo.Delete(ctx, batch.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete batch")
	}
	s.logger.Info("batch deleted", zap.String("batch_id", batch.ID), zap.Int64("students_removed", removed))
	return nil
}

// ListStudents returns the students of a batch.
func (s *BatchService) ListStudents(ctx context.Context, batchID string) ([]models.StudentDetail, error) {
	if _, err := s.Get(ctx, batchID); err != nil {
		return nil, err
	}
	students, err := s.students.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batch students")
	}
	return students, nil
}

// ListSubjects returns the subjects of a batch.
func (s *BatchService) ListSubjects(ctx context.Context, batchID string) ([]models.Subject, error) {
	if _, err := s.Get(ctx, batchID); err != nil {
		return nil, err
	}
	subjects, err := s.subjects.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batch subjects")
	}
	return subjects, nil
}

// MoveStudents reassigns every student of one batch to another.
func (s *BatchService) MoveStudents(ctx context.Context, fromID, toID string) (int64, error) {
	if fromID == toID {
		return 0, appErrors.Clone(appErrors.ErrValidation, "source and target batches must differ")
	}
	if _, err := s.Get(ctx, fromID); err != nil {
		return 0, err
	}
	if _, err := s.Get(ctx, toID); err != nil {
		return 0, err
	}
	moved, err := s.students.MoveBatch(ctx, fromID, toID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to move students")
	}
	s.logger.Info("students moved", zap.String("from", fromID), zap.String("to", toID), zap.Int64("count", moved))
	return moved, nil
}
