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

type unitRepository interface {
	FindByID(ctx context.Context, id string) (*models.Unit, error)
	ListBySubject(ctx context.Context, subjectID string) ([]models.Unit, error)
	ExistsByTitleInSubject(ctx context.Context, title, subjectID, excludeID string) (bool, error)
	Create(ctx context.Context, unit *models.Unit) error
	UpdateTitle(ctx context.Context, id, title string) error
	Delete(ctx context.Context, id string) error
}

type unitSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// UnitService manages units within subjects. Deleting a unit cascades
// to nothing; its materials keep their unit reference.
type UnitService struct {
	repo      unitRepository
	subjects  unitSubjectReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUnitService constructs the unit service.
func NewUnitService(repo unitRepository, subjects unitSubjectReader, validate *validator.Validate, logger *zap.Logger) *UnitService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UnitService{repo: repo, subjects: subjects, validator: validate, logger: logger}
}

// UnitRequest carries a unit title for create and rename.
type UnitRequest struct {
	Title string `json:"title" validate:"required,min=1,max=160"`
}

// Get returns one unit by id.
func (s *UnitService) Get(ctx context.Context, id string) (*models.Unit, error) {
	unit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unit not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unit")
	}
	return unit, nil
}

// ListBySubject returns a subject's units in creation order.
func (s *UnitService) ListBySubject(ctx context.Context, subjectID string) ([]models.Unit, error) {
	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	units, err := s.repo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list units")
	}
	return units, nil
}

// Create adds a unit to a subject. Titles are unique per subject.
func (s *UnitService) Create(ctx context.Context, subjectID string, req UnitRequest) (*models.Unit, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	exists, err := s.repo.ExistsByTitleInSubject(ctx, req.Title, subjectID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check unit title")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "unit with this title already exists in this subject")
	}

	unit := &models.Unit{Title: req.Title, SubjectID: subjectID}
	if err := s.repo.Create(ctx, unit); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "unit with this title already exists in this subject")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create unit")
	}
	return unit, nil
}

// Rename changes a unit's title, excluding the unit itself from the
// uniqueness check.
func (s *UnitService) Rename(ctx context.Context, id string, req UnitRequest) (*models.Unit, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	unit, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByTitleInSubject(ctx, req.Title, unit.SubjectID, unit.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check unit title")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "unit with this title already exists in this subject")
	}

	if err := s.repo.UpdateTitle(ctx, unit.ID, req.Title); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rename unit")
	}
	unit.Title = req.Title
	return unit, nil
}

// Delete removes a unit. Materials under the unit are left untouched.
func (s *UnitService) Delete(ctx context.Context, id string) error {
	unit, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, unit.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete unit")
	}
	return nil
}
