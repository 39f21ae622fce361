package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type portalStudentReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type portalBatchReader interface {
	FindByID(ctx context.Context, id string) (*models.Batch, error)
}

type portalEnrollmentReader interface {
	ListSubjectsByStudent(ctx context.Context, studentID string) ([]models.SubjectDetail, error)
}

type portalUnitReader interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.Unit, error)
}

type portalMaterialReader interface {
	ListByUnit(ctx context.Context, unitID string) ([]models.MaterialDetail, error)
}

// PortalService is the student-facing read surface. Every subject-scoped
// read passes through the enrollment gate.
type PortalService struct {
	students  portalStudentReader
	batches   portalBatchReader
	enrolled  portalEnrollmentReader
	units     portalUnitReader
	materials portalMaterialReader
	gate      *AccessService
	logger    *zap.Logger
}

// NewPortalService constructs the portal service.
func NewPortalService(students portalStudentReader, batches portalBatchReader, enrolled portalEnrollmentReader, units portalUnitReader, materials portalMaterialReader, gate *AccessService, logger *zap.Logger) *PortalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortalService{students: students, batches: batches, enrolled: enrolled, units: units, materials: materials, gate: gate, logger: logger}
}

// Profile returns the signed-in student's record with batch detail.
func (s *PortalService) Profile(ctx context.Context, studentID string) (*models.StudentDetail, error) {
	student, err := s.students.FindDetailByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return student, nil
}

// Batch returns the batch the token claims place the student in. A
// batch other than the student's own is forbidden.
func (s *PortalService) Batch(ctx context.Context, studentBatchID, batchID string) (*models.Batch, error) {
	if err := s.gate.RequireBatchAccess(studentBatchID, batchID); err != nil {
		return nil, err
	}
	batch, err := s.batches.FindByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load batch")
	}
	return batch, nil
}

// Subjects lists the subjects the student is enrolled in.
func (s *PortalService) Subjects(ctx context.Context, studentID string) ([]models.SubjectDetail, error) {
	subjects, err := s.enrolled.ListSubjectsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// SubjectUnits lists a subject's units for an enrolled student. The
// gate runs first: an unenrolled student is denied without the subject's
// existence being checked.
func (s *PortalService) SubjectUnits(ctx context.Context, studentID, subjectID string) ([]models.Unit, error) {
	if err := s.gate.RequireSubjectAccess(ctx, studentID, subjectID); err != nil {
		return nil, err
	}
	units, err := s.units.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list units")
	}
	return units, nil
}

// UnitMaterials lists a unit's materials for an enrolled student. A
// missing unit reports not found before any enrollment verdict.
func (s *PortalService) UnitMaterials(ctx context.Context, studentID, unitID string) ([]models.MaterialDetail, error) {
	if _, err := s.gate.RequireUnitAccess(ctx, studentID, unitID); err != nil {
		return nil, err
	}
	materials, err := s.materials.ListByUnit(ctx, unitID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
	}
	return materials, nil
}
