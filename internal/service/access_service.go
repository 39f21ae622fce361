package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type enrollmentChecker interface {
	Exists(ctx context.Context, studentID, subjectID string) (bool, error)
}

type unitReader interface {
	FindByID(ctx context.Context, id string) (*models.Unit, error)
}

// AccessService is the enrollment authorization gate: it decides, for an
// authenticated student and a requested academic-graph node, whether
// access is permitted. Pure read-and-decide; a missing enrollment edge is
// a deny (Forbidden), never a NotFound.
type AccessService struct {
	enrollments enrollmentChecker
	units       unitReader
	logger      *zap.Logger
}

// NewAccessService constructs the gate.
func NewAccessService(enrollments enrollmentChecker, units unitReader, logger *zap.Logger) *AccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{enrollments: enrollments, units: units, logger: logger}
}

// CanAccessBatch permits exactly the student's own batch. There is no
// batch hierarchy.
func (s *AccessService) CanAccessBatch(studentBatchID, batchID string) bool {
	return studentBatchID == batchID
}

// RequireBatchAccess maps a batch mismatch to Forbidden.
func (s *AccessService) RequireBatchAccess(studentBatchID, batchID string) error {
	if !s.CanAccessBatch(studentBatchID, batchID) {
		return appErrors.Clone(appErrors.ErrForbidden, "you can only access your own batch")
	}
	return nil
}

// CanAccessSubject reports whether the enrollment edge exists.
func (s *AccessService) CanAccessSubject(ctx context.Context, studentID, subjectID string) (bool, error) {
	return s.enrollments.Exists(ctx, studentID, subjectID)
}

// RequireSubjectAccess maps a missing enrollment edge to Forbidden.
func (s *AccessService) RequireSubjectAccess(ctx context.Context, studentID, subjectID string) error {
	enrolled, err := s.enrollments.Exists(ctx, studentID, subjectID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !enrolled {
		return appErrors.Clone(appErrors.ErrForbidden, "you are not enrolled in this subject")
	}
	return nil
}

// RequireUnitAccess resolves the unit to its parent subject and delegates
// to the subject gate. The existence check deliberately precedes the
// authorization check, so a missing unit is NotFound even for a
// non-enrolled student.
func (s *AccessService) RequireUnitAccess(ctx context.Context, studentID, unitID string) (*models.Unit, error) {
	unit, err := s.units.FindByID(ctx, unitID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unit not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unit")
	}

	if err := s.RequireSubjectAccess(ctx, studentID, unit.SubjectID); err != nil {
		return nil, err
	}
	return unit, nil
}
