package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/pkg/config"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type mockAuthStudentRepo struct {
	students map[string]*models.Student
	byMobile map[string]*models.Student
}

func (m *mockAuthStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthStudentRepo) FindByMobile(ctx context.Context, mobile string) (*models.Student, error) {
	if s, ok := m.byMobile[mobile]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthStudentRepo) FindDetailByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return &models.StudentDetail{Student: *s, BatchName: "Batch A"}, nil
	}
	return nil, sql.ErrNoRows
}

func newStudentAuthFixture(t *testing.T) (*StudentAuthService, *mockAuthStudentRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	student := &models.Student{ID: "stu-1", Mobile: "9876543210", PasswordHash: string(hash), RollNumber: "R-1", BatchID: "batch-1"}
	repo := &mockAuthStudentRepo{
		students: map[string]*models.Student{student.ID: student},
		byMobile: map[string]*models.Student{student.Mobile: student},
	}
	tokens := NewTokenService(
		config.JWTConfig{Secret: "user-secret", Expiration: time.Hour, RefreshExpiration: 24 * time.Hour},
		config.JWTConfig{Secret: "student-secret", Expiration: time.Hour, RefreshExpiration: 24 * time.Hour},
	)
	return NewStudentAuthService(repo, tokens, nil, zap.NewNop()), repo
}

func TestStudentLoginSuccess(t *testing.T) {
	svc, _ := newStudentAuthFixture(t)

	detail, pair, err := svc.Login(context.Background(), StudentLoginRequest{Mobile: "9876543210", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "stu-1", detail.ID)
	assert.Equal(t, "Batch A", detail.BatchName)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestStudentLoginUnknownMobile(t *testing.T) {
	svc, _ := newStudentAuthFixture(t)

	_, _, err := svc.Login(context.Background(), StudentLoginRequest{Mobile: "000", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentLoginWrongPassword(t *testing.T) {
	svc, _ := newStudentAuthFixture(t)

	_, _, err := svc.Login(context.Background(), StudentLoginRequest{Mobile: "9876543210", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestStudentRefreshIsStateless(t *testing.T) {
	svc, _ := newStudentAuthFixture(t)

	_, first, err := svc.Login(context.Background(), StudentLoginRequest{Mobile: "9876543210", Password: "secret1"})
	require.NoError(t, err)

	// A second login does not invalidate the first refresh token; there
	// is no stored token to rotate.
	_, _, err = svc.Login(context.Background(), StudentLoginRequest{Mobile: "9876543210", Password: "secret1"})
	require.NoError(t, err)

	_, pair, err := svc.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestStudentRefreshDeletedStudent(t *testing.T) {
	svc, repo := newStudentAuthFixture(t)

	_, pair, err := svc.Login(context.Background(), StudentLoginRequest{Mobile: "9876543210", Password: "secret1"})
	require.NoError(t, err)

	delete(repo.students, "stu-1")

	_, _, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
