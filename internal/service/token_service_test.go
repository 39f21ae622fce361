package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/pkg/config"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

func testTokenService() *TokenService {
	return NewTokenService(
		config.JWTConfig{Secret: "user-secret", Expiration: time.Hour, RefreshExpiration: 24 * time.Hour},
		config.JWTConfig{Secret: "student-secret", Expiration: time.Hour, RefreshExpiration: 24 * time.Hour},
	)
}

func TestUserTokenRoundTrip(t *testing.T) {
	svc := testTokenService()
	user := &models.User{ID: "user-1", Email: "a@b.c", Name: "Alice"}

	token, expiresAt, err := svc.IssueUserAccessToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.VerifyUserToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestStudentTokenRoundTrip(t *testing.T) {
	svc := testTokenService()
	student := &models.Student{ID: "stu-1", RollNumber: "R-7", BatchID: "batch-1"}

	token, _, err := svc.IssueStudentAccessToken(student)
	require.NoError(t, err)

	claims, err := svc.VerifyStudentToken(token)
	require.NoError(t, err)
	assert.Equal(t, "stu-1", claims.StudentID)
	assert.Equal(t, "R-7", claims.RollNumber)
	assert.Equal(t, "batch-1", claims.BatchID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestTokenSurfacesAreDisjoint(t *testing.T) {
	svc := testTokenService()

	userToken, _, err := svc.IssueUserAccessToken(&models.User{ID: "user-1"})
	require.NoError(t, err)
	studentToken, _, err := svc.IssueStudentAccessToken(&models.Student{ID: "stu-1"})
	require.NoError(t, err)

	// Each surface verifies with its own secret, so tokens never cross.
	_, err = svc.VerifyStudentToken(userToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	_, err = svc.VerifyUserToken(studentToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := NewTokenService(
		config.JWTConfig{Secret: "user-secret", Expiration: -time.Minute, RefreshExpiration: -time.Minute},
		config.JWTConfig{Secret: "student-secret", Expiration: time.Hour, RefreshExpiration: time.Hour},
	)

	token, _, err := svc.IssueUserAccessToken(&models.User{ID: "user-1"})
	require.NoError(t, err)

	_, err = svc.VerifyUserToken(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestTamperedTokenRejected(t *testing.T) {
	svc := testTokenService()
	token, _, err := svc.IssueUserAccessToken(&models.User{ID: "user-1"})
	require.NoError(t, err)

	_, err = svc.VerifyUserToken(token + "x")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	svc := testTokenService()

	userRefresh, err := svc.IssueUserRefreshToken("user-1")
	require.NoError(t, err)
	claims, err := svc.VerifyUserRefreshToken(userRefresh)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, models.RoleUser, claims.Role)

	studentRefresh, err := svc.IssueStudentRefreshToken("stu-1")
	require.NoError(t, err)
	studentClaims, err := svc.VerifyStudentRefreshToken(studentRefresh)
	require.NoError(t, err)
	assert.Equal(t, "stu-1", studentClaims.Subject)
	assert.Equal(t, models.RoleStudent, studentClaims.Role)

	// Refresh tokens do not cross surfaces either.
	_, err = svc.VerifyStudentRefreshToken(userRefresh)
	require.Error(t, err)
}
