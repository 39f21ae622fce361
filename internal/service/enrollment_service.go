package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/repository"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type enrollmentRepository interface {
	Exists(ctx context.Context, studentID, subjectID string) (bool, error)
	Create(ctx context.Context, edge *models.StudentSubject) error
	ListSubjectsByStudent(ctx context.Context, studentID string) ([]models.SubjectDetail, error)
}

type enrollmentStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type enrollmentSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// EnrollmentService manages the student-subject edges. Enrollment does
// not require the subject to belong to the student's batch.
type EnrollmentService struct {
	repo     enrollmentRepository
	students enrollmentStudentReader
	subjects enrollmentSubjectReader
	logger   *zap.Logger
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(repo enrollmentRepository, students enrollmentStudentReader, subjects enrollmentSubjectReader, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, students: students, subjects: subjects, logger: logger}
}

// Enroll links a student to a subject. A second enrollment in the same
// subject is a conflict.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID, subjectID string) (*models.StudentSubject, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	exists, err := s.repo.Exists(ctx, studentID, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in this subject")
	}

	edge := &models.StudentSubject{StudentID: studentID, SubjectID: subjectID}
	if err := s.repo.Create(ctx, edge); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in this subject")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}
	s.logger.Info("student enrolled", zap.String("student_id", studentID), zap.String("subject_id", subjectID))
	return edge, nil
}

// StudentSubjects lists the subjects a student is enrolled in.
func (s *EnrollmentService) StudentSubjects(ctx context.Context, studentID string) ([]models.SubjectDetail, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	subjects, err := s.repo.ListSubjectsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrolled subjects")
	}
	return subjects, nil
}
