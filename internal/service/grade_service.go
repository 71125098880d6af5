package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook/internal/models"
	appErrors "github.com/noah-isme/gradebook/pkg/errors"
)

type gradeRepository interface {
	List(ctx context.Context) ([]models.Grade, error)
	FindByID(ctx context.Context, id int64) (*models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, grade *models.Grade) error
	Delete(ctx context.Context, id int64) error
}

type studentLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
}

// CreateGradeRequest records a new grade. DateReceived defaults to the current time.
type CreateGradeRequest struct {
	StudentID    int64      `json:"student_id" validate:"required,gt=0"`
	SubjectID    int64      `json:"subject_id" validate:"required,gt=0"`
	Grade        *int       `json:"grade" validate:"required"`
	DateReceived *time.Time `json:"date_received"`
}

// UpdateGradeRequest changes the value and optionally the date of a grade. Any integer is a valid value.
type UpdateGradeRequest struct {
	Grade        *int       `json:"grade" validate:"required"`
	DateReceived *time.Time `json:"date_received"`
}

// GradeResult is a created grade together with the resolved student and subject.
type GradeResult struct {
	Grade   *models.Grade
	Student *models.Student
	Subject *models.Subject
}

// GradeService records and edits grades.
type GradeService struct {
	repo      gradeRepository
	students  studentLookup
	subjects  subjectLookup
	validator *validator.Validate
	logger    *zap.Logger
	hooks     WriteHooks
	now       func() time.Time
}

// NewGradeService constructs a GradeService.
func NewGradeService(repo gradeRepository, students studentLookup, subjects subjectLookup, validate *validator.Validate, logger *zap.Logger, hooks WriteHooks) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		repo:      repo,
		students:  students,
		subjects:  subjects,
		validator: validate,
		logger:    logger,
		hooks:     hooks,
		now:       time.Now,
	}
}

// List returns every grade.
func (s *GradeService) List(ctx context.Context) ([]models.Grade, error) {
	grades, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// Get returns a grade by ID.
func (s *GradeService) Get(ctx context.Context, id int64) (*models.Grade, error) {
	grade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, targetError(err, "grade")
	}
	return grade, nil
}

// Create resolves the student and subject before inserting the grade.
func (s *GradeService) Create(ctx context.Context, req CreateGradeRequest) (*GradeResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		return nil, referenceError(err, "student")
	}
	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		return nil, referenceError(err, "subject")
	}

	received := s.now()
	if req.DateReceived != nil {
		received = *req.DateReceived
	}

	grade := &models.Grade{
		StudentID:    student.ID,
		SubjectID:    subject.ID,
		Grade:        *req.Grade,
		DateReceived: received,
	}
	if err := s.repo.Create(ctx, grade); err != nil {
		s.logger.Error("create grade", zap.Int64("student_id", student.ID), zap.Int64("subject_id", subject.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade")
	}

	s.logger.Info("grade created", zap.Int64("id", grade.ID), zap.Int64("student_id", student.ID), zap.Int64("subject_id", subject.ID))
	s.hooks.committed(ctx, "grade", "create")
	return &GradeResult{Grade: grade, Student: student, Subject: subject}, nil
}

// Update sets a new value and, when given, a new date on an existing grade.
func (s *GradeService) Update(ctx context.Context, id int64, req UpdateGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	grade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, targetError(err, "grade")
	}

	grade.Grade = *req.Grade
	if req.DateReceived != nil {
		grade.DateReceived = *req.DateReceived
	}
	if err := s.repo.Update(ctx, grade); err != nil {
		s.logger.Error("update grade", zap.Int64("id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade")
	}

	s.logger.Info("grade updated", zap.Int64("id", id), zap.Int("grade", grade.Grade))
	s.hooks.committed(ctx, "grade", "update")
	return grade, nil
}

// Delete removes a grade.
func (s *GradeService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return targetError(err, "grade")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("delete grade", zap.Int64("id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade")
	}

	s.logger.Info("grade deleted", zap.Int64("id", id))
	s.hooks.committed(ctx, "grade", "delete")
	return nil
}
