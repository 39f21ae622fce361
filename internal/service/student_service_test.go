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

type mockStudentRepo struct {
	students map[string]*models.Student
	mobiles  map[string]bool
	// rolls is keyed by batchID/rollNumber.
	rolls       map[string]bool
	deleted     []string
	movedTo     map[string]string
	createCalls int
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{
		students: map[string]*models.Student{},
		mobiles:  map[string]bool{},
		rolls:    map[string]bool{},
		movedTo:  map[string]string{},
	}
}

func (m *mockStudentRepo) List(ctx context.Context) ([]models.Student, error) {
	out := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) FindDetailByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return &models.StudentDetail{Student: *s, BatchName: "Batch A"}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ExistsByMobile(ctx context.Context, mobile string) (bool, error) {
	return m.mobiles[mobile], nil
}

func (m *mockStudentRepo) ExistsByRollNumberInBatch(ctx context.Context, rollNumber, batchID string) (bool, error) {
	return m.rolls[batchID+"/"+rollNumber], nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	m.createCalls++
	student.ID = "stu-1"
	m.students[student.ID] = student
	m.mobiles[student.Mobile] = true
	m.rolls[student.BatchID+"/"+student.RollNumber] = true
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) error {
	delete(m.students, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockStudentRepo) UpdateBatch(ctx context.Context, id, batchID string) error {
	m.students[id].BatchID = batchID
	m.movedTo[id] = batchID
	return nil
}

func newStudentService(repo *mockStudentRepo) *StudentService {
	batches := &mockBatchReader{batches: map[string]*models.Batch{
		"batch-1": {ID: "batch-1", Name: "Batch A"},
		"batch-2": {ID: "batch-2", Name: "Batch B"},
	}}
	return NewStudentService(repo, batches, nil, zap.NewNop())
}

func validStudentRequest() RegisterStudentRequest {
	return RegisterStudentRequest{
		Name:       "Bob",
		Mobile:     "9876543210",
		Password:   "secret1",
		RollNumber: "R-1",
		BatchID:    "batch-1",
	}
}

func TestStudentRegisterHashesPassword(t *testing.T) {
	repo := newMockStudentRepo()
	svc := newStudentService(repo)

	student, err := svc.Register(context.Background(), validStudentRequest())
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", student.PasswordHash)
	assert.NotEmpty(t, student.PasswordHash)
}

func TestStudentRegisterMissingBatch(t *testing.T) {
	repo := newMockStudentRepo()
	svc := newStudentService(repo)

	req := validStudentRequest()
	req.BatchID = "ghost"
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, repo.createCalls)
}

func TestStudentRegisterDuplicateMobile(t *testing.T) {
	repo := newMockStudentRepo()
	repo.mobiles["9876543210"] = true
	svc := newStudentService(repo)

	_, err := svc.Register(context.Background(), validStudentRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentRegisterRollNumberPerBatch(t *testing.T) {
	repo := newMockStudentRepo()
	repo.rolls["batch-2/R-1"] = true
	svc := newStudentService(repo)

	// Same roll number in a different batch is fine.
	_, err := svc.Register(context.Background(), validStudentRequest())
	require.NoError(t, err)

	// Same roll number in the same batch conflicts.
	req := validStudentRequest()
	req.Mobile = "1112223334"
	_, err = svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentChangeBatchRollCollision(t *testing.T) {
	repo := newMockStudentRepo()
	repo.students["stu-1"] = &models.Student{ID: "stu-1", RollNumber: "R-1", BatchID: "batch-1"}
	repo.rolls["batch-2/R-1"] = true
	svc := newStudentService(repo)

	_, err := svc.ChangeBatch(context.Background(), "stu-1", "batch-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentChangeBatchSuccess(t *testing.T) {
	repo := newMockStudentRepo()
	repo.students["stu-1"] = &models.Student{ID: "stu-1", RollNumber: "R-1", BatchID: "batch-1"}
	svc := newStudentService(repo)

	detail, err := svc.ChangeBatch(context.Background(), "stu-1", "batch-2")
	require.NoError(t, err)
	assert.Equal(t, "batch-2", detail.BatchID)
	assert.Equal(t, "batch-2", repo.movedTo["stu-1"])
}

func TestStudentDeleteMissing(t *testing.T) {
	svc := newStudentService(newMockStudentRepo())

	err := svc.Delete(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
