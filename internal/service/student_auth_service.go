package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type authStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByMobile(ctx context.Context, mobile string) (*models.Student, error)
	FindDetailByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

// StudentAuthService provides the student login flow. Unlike staff, no
// refresh token is stored server-side: refresh is stateless and logout
// only clears cookies, so issued refresh tokens stay valid until expiry.
type StudentAuthService struct {
	repo      authStudentRepository
	tokens    *TokenService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentAuthService constructs a StudentAuthService instance.
func NewStudentAuthService(repo authStudentRepository, tokens *TokenService, validate *validator.Validate, logger *zap.Logger) *StudentAuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &StudentAuthService{repo: repo, tokens: tokens, validator: validate, logger: logger}
}

// StudentLoginRequest carries student login credentials.
type StudentLoginRequest struct {
	Mobile   string `json:"mobile" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates a student by mobile and password.
func (s *StudentAuthService) Login(ctx context.Context, req StudentLoginRequest) (*models.StudentDetail, *TokenPair, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	student, err := s.repo.FindByMobile(ctx, strings.TrimSpace(req.Mobile))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "student does not exist")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid credentials")
	}

	pair, err := s.issueTokens(student)
	if err != nil {
		return nil, nil, err
	}

	detail, err := s.repo.FindDetailByID(ctx, student.ID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return detail, pair, nil
}

// Refresh exchanges a valid student refresh token for a new pair. Only
// the signature and expiry are checked; there is no stored token to
// compare against.
func (s *StudentAuthService) Refresh(ctx context.Context, refreshToken string) (*models.StudentDetail, *TokenPair, error) {
	if refreshToken == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token required")
	}

	claims, err := s.tokens.VerifyStudentRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, err
	}

	student, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "associated student no longer exists")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	pair, err := s.issueTokens(student)
	if err != nil {
		return nil, nil, err
	}

	detail, err := s.repo.FindDetailByID(ctx, student.ID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return detail, pair, nil
}

func (s *StudentAuthService) issueTokens(student *models.Student) (*TokenPair, error) {
	accessToken, _, err := s.tokens.IssueStudentAccessToken(student)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	refreshToken, err := s.tokens.IssueStudentRefreshToken(student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
