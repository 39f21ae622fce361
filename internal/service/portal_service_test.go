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

type mockPortalStudents struct {
	details map[string]*models.StudentDetail
}

func (m *mockPortalStudents) FindDetailByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if d, ok := m.details[id]; ok {
		return d, nil
	}
	return nil, sql.ErrNoRows
}

type mockPortalEnrollments struct {
	subjects map[string][]models.SubjectDetail
}

func (m *mockPortalEnrollments) ListSubjectsByStudent(ctx context.Context, studentID string) ([]models.SubjectDetail, error) {
	return m.subjects[studentID], nil
}

type mockPortalUnits struct {
	bySubject map[string][]models.Unit
	listCalls int
}

func (m *mockPortalUnits) ListBySubject(ctx context.Context, subjectID string) ([]models.Unit, error) {
	m.listCalls++
	return m.bySubject[subjectID], nil
}

type mockPortalMaterials struct {
	byUnit    map[string][]models.MaterialDetail
	listCalls int
}

func (m *mockPortalMaterials) ListByUnit(ctx context.Context, unitID string) ([]models.MaterialDetail, error) {
	m.listCalls++
	return m.byUnit[unitID], nil
}

func newPortalFixture() (*PortalService, *mockEnrollmentChecker, *mockPortalUnits, *mockPortalMaterials) {
	enrollments := &mockEnrollmentChecker{edges: map[string]bool{"stu-1/sub-1": true}}
	unitsReader := &mockUnitReader{units: map[string]*models.Unit{"unit-1": {ID: "unit-1", SubjectID: "sub-1"}}}
	gate := NewAccessService(enrollments, unitsReader, zap.NewNop())

	students := &mockPortalStudents{details: map[string]*models.StudentDetail{
		"stu-1": {Student: models.Student{ID: "stu-1", BatchID: "batch-1"}, BatchName: "Batch A"},
	}}
	batches := &mockBatchReader{batches: map[string]*models.Batch{"batch-1": {ID: "batch-1", Name: "Batch A"}}}
	portalEnrollments := &mockPortalEnrollments{subjects: map[string][]models.SubjectDetail{}}
	units := &mockPortalUnits{bySubject: map[string][]models.Unit{"sub-1": {{ID: "unit-1", SubjectID: "sub-1"}}}}
	materials := &mockPortalMaterials{byUnit: map[string][]models.MaterialDetail{}}

	svc := NewPortalService(students, batches, portalEnrollments, units, materials, gate, zap.NewNop())
	return svc, enrollments, units, materials
}

func TestPortalBatchOwnOnly(t *testing.T) {
	svc, _, _, _ := newPortalFixture()

	batch, err := svc.Batch(context.Background(), "batch-1", "batch-1")
	require.NoError(t, err)
	assert.Equal(t, "Batch A", batch.Name)

	_, err = svc.Batch(context.Background(), "batch-1", "batch-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestPortalSubjectUnitsGateFirst(t *testing.T) {
	svc, _, units, _ := newPortalFixture()

	got, err := svc.SubjectUnits(context.Background(), "stu-1", "sub-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// An unenrolled subject is denied without touching the unit store,
	// and without revealing whether the subject exists.
	_, err = svc.SubjectUnits(context.Background(), "stu-1", "ghost-subject")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 1, units.listCalls)
}

func TestPortalUnitMaterialsMissingUnit(t *testing.T) {
	svc, enrollments, _, materials := newPortalFixture()

	_, err := svc.UnitMaterials(context.Background(), "stu-1", "ghost-unit")
	require.Error(t, err)
	// A missing unit is NotFound before any enrollment verdict.
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, enrollments.calls)
	assert.Equal(t, 0, materials.listCalls)
}

func TestPortalUnitMaterialsUnenrolled(t *testing.T) {
	svc, _, _, materials := newPortalFixture()

	_, err := svc.UnitMaterials(context.Background(), "stu-2", "unit-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, materials.listCalls)
}

func TestPortalProfile(t *testing.T) {
	svc, _, _, _ := newPortalFixture()

	profile, err := svc.Profile(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "Batch A", profile.BatchName)

	_, err = svc.Profile(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
