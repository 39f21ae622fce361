package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type mockEnrollmentChecker struct {
	edges map[string]bool
	calls int
}

func (m *mockEnrollmentChecker) Exists(ctx context.Context, studentID, subjectID string) (bool, error) {
	m.calls++
	return m.edges[studentID+"/"+subjectID], nil
}

type mockUnitReader struct {
	units map[string]*models.Unit
}

func (m *mockUnitReader) FindByID(ctx context.Context, id string) (*models.Unit, error) {
	if u, ok := m.units[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func TestBatchAccessExactEquality(t *testing.T) {
	svc := NewAccessService(&mockEnrollmentChecker{}, &mockUnitReader{}, zap.NewNop())

	assert.True(t, svc.CanAccessBatch("batch-1", "batch-1"))
	assert.False(t, svc.CanAccessBatch("batch-1", "batch-2"))

	err := svc.RequireBatchAccess("batch-1", "batch-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSubjectAccessRequiresEdge(t *testing.T) {
	enrollments := &mockEnrollmentChecker{edges: map[string]bool{"stu-1/sub-1": true}}
	svc := NewAccessService(enrollments, &mockUnitReader{}, zap.NewNop())

	require.NoError(t, svc.RequireSubjectAccess(context.Background(), "stu-1", "sub-1"))

	err := svc.RequireSubjectAccess(context.Background(), "stu-1", "sub-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUnitAccessMissingUnitIsNotFound(t *testing.T) {
	enrollments := &mockEnrollmentChecker{}
	svc := NewAccessService(enrollments, &mockUnitReader{}, zap.NewNop())

	_, err := svc.RequireUnitAccess(context.Background(), "stu-1", "missing")
	require.Error(t, err)
	// Existence is checked before enrollment, even for a non-enrolled
	// student.
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, enrollments.calls)
}

func TestUnitAccessDelegatesToSubject(t *testing.T) {
	enrollments := &mockEnrollmentChecker{edges: map[string]bool{"stu-1/sub-1": true}}
	units := &mockUnitReader{units: map[string]*models.Unit{"unit-1": {ID: "unit-1", SubjectID: "sub-1"}}}
	svc := NewAccessService(enrollments, units, zap.NewNop())

	unit, err := svc.RequireUnitAccess(context.Background(), "stu-1", "unit-1")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", unit.SubjectID)

	_, err = svc.RequireUnitAccess(context.Background(), "stu-2", "unit-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
