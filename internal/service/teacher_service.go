package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook/internal/models"
	appErrors "github.com/noah-isme/gradebook/pkg/errors"
)

type teacherRepository interface {
	List(ctx context.Context) ([]models.Teacher, error)
	FindByID(ctx context.Context, id int64) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id int64) error
	AssignSubject(ctx context.Context, teacherID, subjectID int64) error
	UnassignSubject(ctx context.Context, teacherID, subjectID int64) (bool, error)
	ListSubjects(ctx context.Context, teacherID int64) ([]models.Subject, error)
}

type subjectLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
}

// TeacherRequest carries the writable teacher fields.
type TeacherRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// TeacherService manages teachers and the subjects they teach.
type TeacherService struct {
	repo      teacherRepository
	subjects  subjectLookup
	validator *validator.Validate
	logger    *zap.Logger
	hooks     WriteHooks
}

// NewTeacherService constructs the service.
func NewTeacherService(repo teacherRepository, subjects subjectLookup, validate *validator.Validate, logger *zap.Logger, hooks WriteHooks) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, subjects: subjects, validator: validate, logger: logger, hooks: hooks}
}

// List returns all teachers.
func (s *TeacherService) List(ctx context.Context) ([]models.Teacher, error) {
	teachers, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, nil
}

// Get returns teacher detail.
func (s *TeacherService) Get(ctx context.Context, id int64) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, targetError(err, "teacher")
	}
	return teacher, nil
}

// Create registers a new teacher.
func (s *TeacherService) Create(ctx context.Context, req TeacherRequest) (*models.Teacher, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	teacher := &models.Teacher{Name: req.Name}
	if err := s.repo.Create(ctx, teacher); err != nil {
		s.logger.Error("create teacher", zap.String("name", req.Name), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}

	s.logger.Info("teacher created", zap.Int64("id", teacher.ID))
	s.hooks.committed(ctx, "teacher", "create")
	return teacher, nil
}

// Update renames an existing teacher.
func (s *TeacherService) Update(ctx context.Context, id int64, req TeacherRequest) (*models.Teacher, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, targetError(err, "teacher")
	}

	teacher.Name = req.Name
	if err := s.repo.Update(ctx, teacher); err != nil {
		s.logger.Error("update teacher", zap.Int64("id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}

	s.logger.Info("teacher updated", zap.Int64("id", id))
	s.hooks.committed(ctx, "teacher", "update")
	return teacher, nil
}

// Delete removes a teacher. Subjects stay, only the association rows go.
func (s *TeacherService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return targetError(err, "teacher")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("delete teacher", zap.Int64("id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}

	s.logger.Info("teacher deleted", zap.Int64("id", id))
	s.hooks.committed(ctx, "teacher", "delete")
	return nil
}

// AssignSubject links a teacher to a subject. Assigning an existing pair is a no-op.
func (s *TeacherService) AssignSubject(ctx context.Context, teacherID, subjectID int64) error {
	if _, err := s.repo.FindByID(ctx, teacherID); err != nil {
		return referenceError(err, "teacher")
	}
	if _, err := s.subjects.FindByID(ctx, subjectID); err != nil {
		return referenceError(err, "subject")
	}

	if err := s.repo.AssignSubject(ctx, teacherID, subjectID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign subject")
	}

	s.logger.Info("subject assigned", zap.Int64("teacher_id", teacherID), zap.Int64("subject_id", subjectID))
	s.hooks.committed(ctx, "teacher_subject", "create")
	return nil
}

// UnassignSubject removes the teacher/subject link.
func (s *TeacherService) UnassignSubject(ctx context.Context, teacherID, subjectID int64) error {
	removed, err := s.repo.UnassignSubject(ctx, teacherID, subjectID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unassign subject")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "teacher subject link not found")
	}

	s.logger.Info("subject unassigned", zap.Int64("teacher_id", teacherID), zap.Int64("subject_id", subjectID))
	s.hooks.committed(ctx, "teacher_subject", "delete")
	return nil
}

// ListSubjects returns the subjects linked to a teacher.
func (s *TeacherService) ListSubjects(ctx context.Context, teacherID int64) ([]models.Subject, error) {
	if _, err := s.repo.FindByID(ctx, teacherID); err != nil {
		return nil, targetError(err, "teacher")
	}
	subjects, err := s.repo.ListSubjects(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher subjects")
	}
	return subjects, nil
}
