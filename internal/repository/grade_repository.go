package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook/internal/models"
)

// GradeRepository persists grade entries.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// List returns every grade with its student and subject ids.
func (r *GradeRepository) List(ctx context.Context) ([]models.Grade, error) {
	const query = `SELECT id, student_id, subject_id, grade, date_received FROM grades ORDER BY id`
	grades := []models.Grade{}
	if err := r.db.SelectContext(ctx, &grades, query); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// FindByID returns a grade by id.
func (r *GradeRepository) FindByID(ctx context.Context, id int64) (*models.Grade, error) {
	const query = `SELECT id, student_id, subject_id, grade, date_received FROM grades WHERE id = ?`
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, r.db.Rebind(query), id); err != nil {
		return nil, err
	}
	return &grade, nil
}

// Create inserts a grade. DateReceived is stored in UTC at microsecond precision.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	grade.DateReceived = normalizeTime(grade.DateReceived)
	const query = `INSERT INTO grades (student_id, subject_id, grade, date_received) VALUES (?, ?, ?, ?) RETURNING id`
	if err := r.db.GetContext(ctx, &grade.ID, r.db.Rebind(query), grade.StudentID, grade.SubjectID, grade.Grade, grade.DateReceived); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// Update overwrites the value and date of a grade.
func (r *GradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	grade.DateReceived = normalizeTime(grade.DateReceived)
	const query = `UPDATE grades SET grade = ?, date_received = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), grade.Grade, grade.DateReceived, grade.ID); err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	return nil
}

// Delete removes a grade.
func (r *GradeRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM grades WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete grade: %w", err)
	}
	return nil
}
