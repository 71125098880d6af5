package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook/internal/models"
)

// TeacherRepository manages persistence for teachers and their subject links.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns every teacher.
func (r *TeacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	const query = `SELECT id, name FROM teachers ORDER BY id`
	teachers := []models.Teacher{}
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// FindByID fetches a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id int64) (*models.Teacher, error) {
	const query = `SELECT id, name FROM teachers WHERE id = ?`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, r.db.Rebind(query), id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// Create inserts a new teacher record.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	const query = `INSERT INTO teachers (name) VALUES (?) RETURNING id`
	if err := r.db.GetContext(ctx, &teacher.ID, r.db.Rebind(query), teacher.Name); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update modifies an existing teacher record.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	const query = `UPDATE teachers SET name = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), teacher.Name, teacher.ID); err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return nil
}

// Delete removes a teacher. Subjects stay; only association rows go.
func (r *TeacherRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM teachers WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	return nil
}

// AssignSubject links a subject to a teacher. Existing links are left untouched.
func (r *TeacherRepository) AssignSubject(ctx context.Context, teacherID, subjectID int64) error {
	const query = `INSERT INTO teacher_m2m_subject (teacher_id, subject_id) VALUES (?, ?) ON CONFLICT (teacher_id, subject_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), teacherID, subjectID); err != nil {
		return fmt.Errorf("assign subject: %w", err)
	}
	return nil
}

// UnassignSubject removes a teacher/subject link and reports whether one existed.
func (r *TeacherRepository) UnassignSubject(ctx context.Context, teacherID, subjectID int64) (bool, error) {
	const query = `DELETE FROM teacher_m2m_subject WHERE teacher_id = ? AND subject_id = ?`
	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), teacherID, subjectID)
	if err != nil {
		return false, fmt.Errorf("unassign subject: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unassign subject rows: %w", err)
	}
	return affected > 0, nil
}

// ListSubjects returns the subjects linked to a teacher.
func (r *TeacherRepository) ListSubjects(ctx context.Context, teacherID int64) ([]models.Subject, error) {
	const query = `SELECT sub.id, sub.name FROM subjects sub
		JOIN teacher_m2m_subject ts ON ts.subject_id = sub.id
		WHERE ts.teacher_id = ? ORDER BY sub.id`
	subjects := []models.Subject{}
	if err := r.db.SelectContext(ctx, &subjects, r.db.Rebind(query), teacherID); err != nil {
		return nil, fmt.Errorf("list teacher subjects: %w", err)
	}
	return subjects, nil
}
