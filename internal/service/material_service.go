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

type materialRepository interface {
	FindByID(ctx context.Context, id string) (*models.Material, error)
	ListByUnit(ctx context.Context, unitID string) ([]models.MaterialDetail, error)
	Create(ctx context.Context, material *models.Material) error
	Delete(ctx context.Context, id string) error
}

type materialUnitReader interface {
	FindByID(ctx context.Context, id string) (*models.Unit, error)
}

// MaterialService manages learning materials under units.
type MaterialService struct {
	repo      materialRepository
	units     materialUnitReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMaterialService constructs the material service.
func NewMaterialService(repo materialRepository, units materialUnitReader, validate *validator.Validate, logger *zap.Logger) *MaterialService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaterialService{repo: repo, units: units, validator: validate, logger: logger}
}

// AddMaterialRequest attaches a resource URL to a unit.
type AddMaterialRequest struct {
	Title      string `json:"title" validate:"required,min=1,max=200"`
	FileURL    string `json:"file_url" validate:"required,url"`
	UploadedBy string `json:"-"`
}

// Add stores a material under an existing unit.
func (s *MaterialService) Add(ctx context.Context, unitID string, req AddMaterialRequest) (*models.Material, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.FileURL = strings.TrimSpace(req.FileURL)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	if _, err := s.units.FindByID(ctx, unitID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unit not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unit")
	}

	material := &models.Material{
		UnitID:  unitID,
		Title:   req.Title,
		FileURL: req.FileURL,
	}
	if req.UploadedBy != "" {
		material.UploadedBy = &req.UploadedBy
	}
	if err := s.repo.Create(ctx, material); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add material")
	}
	s.logger.Info("material added", zap.String("material_id", material.ID), zap.String("unit_id", unitID))
	return material, nil
}

// ListByUnit returns a unit's materials, newest first.
func (s *MaterialService) ListByUnit(ctx context.Context, unitID string) ([]models.MaterialDetail, error) {
	if _, err := s.units.FindByID(ctx, unitID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unit not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unit")
	}
	materials, err := s.repo.ListByUnit(ctx, unitID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
	}
	return materials, nil
}

// Delete removes one material record. The file behind the URL is not
// touched.
func (s *MaterialService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete material")
	}
	return nil
}
