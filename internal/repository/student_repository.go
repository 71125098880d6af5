package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook/internal/models"
)

// StudentRepository handles persistence for students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new repository instance.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns every student with its group id.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	const query = `SELECT id, name, group_id FROM students ORDER BY id`
	students := []models.Student{}
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID returns a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	const query = `SELECT id, name, group_id FROM students WHERE id = ?`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, r.db.Rebind(query), id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create persists a new student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	const query = `INSERT INTO students (name, group_id) VALUES (?, ?) RETURNING id`
	if err := r.db.GetContext(ctx, &student.ID, r.db.Rebind(query), student.Name, student.GroupID); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies the name and group of a student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	const query = `UPDATE students SET name = ?, group_id = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), student.Name, student.GroupID, student.ID); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student together with their grades.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM students WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}
