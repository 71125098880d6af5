package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook/internal/models"
	appErrors "github.com/noah-isme/gradebook/pkg/errors"
)

type groupRepository interface {
	List(ctx context.Context) ([]models.Group, error)
	FindByID(ctx context.Context, id int64) (*models.Group, error)
	Create(ctx context.Context, group *models.Group) error
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id int64) error
}

// GroupRequest carries the writable group fields.
type GroupRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

// GroupService handles group workflows.
type GroupService struct {
	repo      groupRepository
	validator *validator.Validate
	logger    *zap.Logger
	hooks     WriteHooks
}

// NewGroupService creates a new group service.
func NewGroupService(repo groupRepository, validate *validator.Validate, logger *zap.Logger, hooks WriteHooks) *GroupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{repo: repo, validator: validate, logger: logger, hooks: hooks}
}

// List returns every group in storage order.
func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	groups, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
	}
	return groups, nil
}

// Get returns a group by identifier.
func (s *GroupService) Get(ctx context.Context, id int64) (*models.Group, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, targetError(err, "group")
	}
	return group, nil
}

// Create adds a new group. Duplicate names surface as internal errors from the unique constraint.
func (s *GroupService) Create(ctx context.Context, req GroupRequest) (*models.Group, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}

	group := &models.Group{Name: req.Name}
	if err := s.repo.Create(ctx, group); err != nil {
		s.logger.Error("create group", zap.String("name", req.Name), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create group")
	}

	s.logger.Info("group created", zap.Int64("id", group.ID), zap.String("name", group.Name))
	s.hooks.committed(ctx, "group", "create")
	return group, nil
}

// Update renames an existing group.
func (s *GroupService) Update(ctx context.Context, id int64, req GroupRequest) (*models.Group, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}

	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, targetError(err, "group")
	}

	group.Name = req.Name
	if err := s.repo.Update(ctx, group); err != nil {
		s.logger.Error("update group", zap.Int64("id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update group")
	}

	s.logger.Info("group updated", zap.Int64("id", id), zap.String("name", group.Name))
	s.hooks.committed(ctx, "group", "update")
	return group, nil
}

// Delete removes a group together with its students and their grades.
func (s *GroupService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return targetError(err, "group")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("delete group", zap.Int64("id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete group")
	}

	s.logger.Info("group deleted", zap.Int64("id", id))
	s.hooks.committed(ctx, "group", "delete")
	return nil
}
