package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/pkg/config"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

// TokenService issues and verifies JWT credentials for both actor kinds.
// Users and students have disjoint secrets and TTLs; a verification always
// uses the secret configured for the surface's actor kind, never one
// inferred from the token contents.
type TokenService struct {
	user    config.JWTConfig
	student config.JWTConfig
}

// NewTokenService constructs a token service from the two JWT sections.
func NewTokenService(user, student config.JWTConfig) *TokenService {
	return &TokenService{user: user, student: student}
}

// IssueUserAccessToken signs a staff access token.
func (s *TokenService) IssueUserAccessToken(user *models.User) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.user.Expiration)
	claims := &models.UserClaims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   models.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	return signClaims(claims, s.user.Secret, expiresAt)
}

// IssueUserRefreshToken signs a staff refresh token embedding only the
// subject identifier.
func (s *TokenService) IssueUserRefreshToken(userID string) (string, error) {
	token, _, err := signClaims(refreshClaims(userID, models.RoleUser, s.user.RefreshExpiration), s.user.Secret, time.Time{})
	return token, err
}

// IssueStudentAccessToken signs a student access token. The roll number
// and batch ride along for display; the password never does.
func (s *TokenService) IssueStudentAccessToken(student *models.Student) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.student.Expiration)
	claims := &models.StudentClaims{
		StudentID:  student.ID,
		RollNumber: student.RollNumber,
		BatchID:    student.BatchID,
		Role:       models.RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   student.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	return signClaims(claims, s.student.Secret, expiresAt)
}

// IssueStudentRefreshToken signs a student refresh token. Nothing is
// stored server-side, so it cannot be revoked before expiry.
func (s *TokenService) IssueStudentRefreshToken(studentID string) (string, error) {
	token, _, err := signClaims(refreshClaims(studentID, models.RoleStudent, s.student.RefreshExpiration), s.student.Secret, time.Time{})
	return token, err
}

// VerifyUserToken validates a staff access token and returns its claims.
func (s *TokenService) VerifyUserToken(tokenString string) (*models.UserClaims, error) {
	claims := &models.UserClaims{}
	if err := parseClaims(tokenString, s.user.Secret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyStudentToken validates a student access token and returns its claims.
func (s *TokenService) VerifyStudentToken(tokenString string) (*models.StudentClaims, error) {
	claims := &models.StudentClaims{}
	if err := parseClaims(tokenString, s.student.Secret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyUserRefreshToken validates a staff refresh token.
func (s *TokenService) VerifyUserRefreshToken(tokenString string) (*models.RefreshClaims, error) {
	claims := &models.RefreshClaims{}
	if err := parseClaims(tokenString, s.user.Secret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyStudentRefreshToken validates a student refresh token.
func (s *TokenService) VerifyStudentRefreshToken(tokenString string) (*models.RefreshClaims, error) {
	claims := &models.RefreshClaims{}
	if err := parseClaims(tokenString, s.student.Secret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func refreshClaims(subjectID string, role models.TokenRole, ttl time.Duration) *models.RefreshClaims {
	issuedAt := time.Now().UTC()
	return &models.RefreshClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
}

func signClaims(claims jwt.Claims, secret string, expiresAt time.Time) (string, time.Time, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func parseClaims(tokenString, secret string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	if !token.Valid {
		return appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return nil
}
