package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook/internal/models"
)

// GroupRepository handles persistence for groups.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository creates a new repository instance.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// List returns every group in storage order.
func (r *GroupRepository) List(ctx context.Context) ([]models.Group, error) {
	const query = `SELECT id, name FROM groups ORDER BY id`
	groups := []models.Group{}
	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// FindByID returns a group by id.
func (r *GroupRepository) FindByID(ctx context.Context, id int64) (*models.Group, error) {
	const query = `SELECT id, name FROM groups WHERE id = ?`
	var group models.Group
	if err := r.db.GetContext(ctx, &group, r.db.Rebind(query), id); err != nil {
		return nil, err
	}
	return &group, nil
}

// Create persists a new group and stores the assigned id on it.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	const query = `INSERT INTO groups (name) VALUES (?) RETURNING id`
	if err := r.db.GetContext(ctx, &group.ID, r.db.Rebind(query), group.Name); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

// Update renames a group.
func (r *GroupRepository) Update(ctx context.Context, group *models.Group) error {
	const query = `UPDATE groups SET name = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), group.Name, group.ID); err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	return nil
}

// Delete removes a group; its students and their grades cascade.
func (r *GroupRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM groups WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}
