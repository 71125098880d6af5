package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook/internal/models"
	appErrors "github.com/noah-isme/gradebook/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) error
}

type groupLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Group, error)
}

// StudentRequest carries the writable student fields. GroupID must reference an existing group.
type StudentRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	GroupID int64  `json:"group_id" validate:"required,gt=0"`
}

// StudentService manages student records and their group membership.
type StudentService struct {
	repo      studentRepository
	groups    groupLookup
	validator *validator.Validate
	logger    *zap.Logger
	hooks     WriteHooks
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, groups groupLookup, validate *validator.Validate, logger *zap.Logger, hooks WriteHooks) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, groups: groups, validator: validate, logger: logger, hooks: hooks}
}

// List returns every student.
func (s *StudentService) List(ctx context.Context) ([]models.Student, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Get returns a student by ID.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, targetError(err, "student")
	}
	return student, nil
}

// Create registers a student in an existing group. The returned group is the resolved membership.
func (s *StudentService) Create(ctx context.Context, req StudentRequest) (*models.Student, *models.Group, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	group, err := s.groups.FindByID(ctx, req.GroupID)
	if err != nil {
		return nil, nil, referenceError(err, "group")
	}

	student := &models.Student{Name: req.Name, GroupID: group.ID}
	if err := s.repo.Create(ctx, student); err != nil {
		s.logger.Error("create student", zap.String("name", req.Name), zap.Error(err))
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	s.logger.Info("student created", zap.Int64("id", student.ID), zap.Int64("group_id", group.ID))
	s.hooks.committed(ctx, "student", "create")
	return student, group, nil
}

// Update renames a student and may move them to another group.
func (s *StudentService) Update(ctx context.Context, id int64, req StudentRequest) (*models.Student, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, targetError(err, "student")
	}
	if student.GroupID != req.GroupID {
		if _, err := s.groups.FindByID(ctx, req.GroupID); err != nil {
			return nil, referenceError(err, "group")
		}
	}

	student.Name = req.Name
	student.GroupID = req.GroupID
	if err := s.repo.Update(ctx, student); err != nil {
		s.logger.Error("update student", zap.Int64("id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	s.logger.Info("student updated", zap.Int64("id", id), zap.Int64("group_id", student.GroupID))
	s.hooks.committed(ctx, "student", "update")
	return student, nil
}

// Delete removes a student and all of their grades.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return targetError(err, "student")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("delete student", zap.Int64("id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}

	s.logger.Info("student deleted", zap.Int64("id", id))
	s.hooks.committed(ctx, "student", "delete")
	return nil
}
