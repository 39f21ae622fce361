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

type mockBatchRepo struct {
	batches map[string]*models.Batch
	names   map[string]bool
	deleted []string
}

func newMockBatchRepo() *mockBatchRepo {
	return &mockBatchRepo{batches: map[string]*models.Batch{}, names: map[string]bool{}}
}

func (m *mockBatchRepo) List(ctx context.Context) ([]models.Batch, error) {
	out := make([]models.Batch, 0, len(m.batches))
	for _, b := range m.batches {
		out = append(out, *b)
	}
	return out, nil
}

func (m *mockBatchRepo) FindByID(ctx context.Context, id string) (*models.Batch, error) {
	if b, ok := m.batches[id]; ok {
		return b, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBatchRepo) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	return m.names[name], nil
}

func (m *mockBatchRepo) Create(ctx context.Context, batch *models.Batch) error {
	batch.ID = "batch-1"
	m.batches[batch.ID] = batch
	m.names[batch.Name] = true
	return nil
}

func (m *mockBatchRepo) UpdateName(ctx context.Context, id, name string) error {
	m.batches[id].Name = name
	return nil
}

func (m *mockBatchRepo) Delete(ctx context.Context, id string) error {
	delete(m.batches, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockBatchStudents struct {
	byBatch      map[string][]models.StudentDetail
	deletedBatch string
	deletedCount int64
	movedFrom    string
	movedTo      string
}

func (m *mockBatchStudents) ListByBatch(ctx context.Context, batchID string) ([]models.StudentDetail, error) {
	return m.byBatch[batchID], nil
}

func (m *mockBatchStudents) DeleteByBatch(ctx context.Context, batchID string) (int64, error) {
	m.deletedBatch = batchID
	return m.deletedCount, nil
}

func (m *mockBatchStudents) MoveBatch(ctx context.Context, fromBatchID, toBatchID string) (int64, error) {
	m.movedFrom = fromBatchID
	m.movedTo = toBatchID
	return 3, nil
}

type mockBatchSubjects struct {
	byBatch map[string][]models.Subject
}

func (m *mockBatchSubjects) ListByBatch(ctx context.Context, batchID string) ([]models.Subject, error) {
	return m.byBatch[batchID], nil
}

func newBatchService(repo *mockBatchRepo, students *mockBatchStudents, subjects *mockBatchSubjects) *BatchService {
	if students == nil {
		students = &mockBatchStudents{}
	}
	if subjects == nil {
		subjects = &mockBatchSubjects{}
	}
	return NewBatchService(repo, students, subjects, nil, zap.NewNop())
}

func TestBatchCreateDuplicateName(t *testing.T) {
	repo := newMockBatchRepo()
	repo.names["Batch 2026"] = true
	svc := newBatchService(repo, nil, nil)

	_, err := svc.Create(context.Background(), BatchRequest{Name: "Batch 2026"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestBatchCreateTrimsName(t *testing.T) {
	repo := newMockBatchRepo()
	svc := newBatchService(repo, nil, nil)

	batch, err := svc.Create(context.Background(), BatchRequest{Name: "  Batch 2026  "})
	require.NoError(t, err)
	assert.Equal(t, "Batch 2026", batch.Name)
}

func TestBatchRenameToOwnNameRejected(t *testing.T) {
	repo := newMockBatchRepo()
	repo.batches["batch-1"] = &models.Batch{ID: "batch-1", Name: "Batch 2026"}
	repo.names["Batch 2026"] = true
	svc := newBatchService(repo, nil, nil)

	// The uniqueness check does not exclude the batch being renamed.
	_, err := svc.Rename(context.Background(), "batch-1", BatchRequest{Name: "Batch 2026"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestBatchRenameMissing(t *testing.T) {
	svc := newBatchService(newMockBatchRepo(), nil, nil)

	_, err := svc.Rename(context.Background(), "missing", BatchRequest{Name: "New"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBatchDeleteCascadesToStudents(t *testing.T) {
	repo := newMockBatchRepo()
	repo.batches["batch-1"] = &models.Batch{ID: "batch-1", Name: "Batch 2026"}
	students := &mockBatchStudents{deletedCount: 5}
	svc := newBatchService(repo, students, nil)

	require.NoError(t, svc.Delete(context.Background(), "batch-1"))
	assert.Equal(t, "batch-1", students.deletedBatch)
	assert.Equal(t, []string{"batch-1"}, repo.deleted)
}

func TestBatchDeleteMissing(t *testing.T) {
	students := &mockBatchStudents{}
	svc := newBatchService(newMockBatchRepo(), students, nil)

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	// No writes happen when the fetch fails.
	assert.Empty(t, students.deletedBatch)
}

func TestBatchMoveStudents(t *testing.T) {
	repo := newMockBatchRepo()
	repo.batches["a"] = &models.Batch{ID: "a"}
	repo.batches["b"] = &models.Batch{ID: "b"}
	students := &mockBatchStudents{}
	svc := newBatchService(repo, students, nil)

	moved, err := svc.MoveStudents(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, int64(3), moved)
	assert.Equal(t, "a", students.movedFrom)
	assert.Equal(t, "b", students.movedTo)
}

func TestBatchMoveStudentsSameBatch(t *testing.T) {
	svc := newBatchService(newMockBatchRepo(), nil, nil)

	_, err := svc.MoveStudents(context.Background(), "a", "a")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
