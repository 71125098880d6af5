package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook/internal/models"
)

// DefaultTopStudents is how many students the overall ranking returns.
const DefaultTopStudents = 5

// QueryRepository exposes the read-only analytical queries over grades.
type QueryRepository struct {
	db *sqlx.DB
}

// NewQueryRepository instantiates the repository.
func NewQueryRepository(db *sqlx.DB) *QueryRepository {
	return &QueryRepository{db: db}
}

// TopStudents ranks students by their mean grade across all subjects. Students without grades are skipped.
func (r *QueryRepository) TopStudents(ctx context.Context, limit int) ([]models.StudentAverage, error) {
	if limit <= 0 {
		limit = DefaultTopStudents
	}
	const query = `SELECT s.name AS name, AVG(g.grade) AS average_grade
		FROM students s
		JOIN grades g ON g.student_id = s.id
		GROUP BY s.id, s.name
		ORDER BY average_grade DESC, s.id
		LIMIT ?`
	rows := []models.StudentAverage{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), limit); err != nil {
		return nil, fmt.Errorf("query top students: %w", err)
	}
	return rows, nil
}

// TopStudentInSubject returns the student with the highest mean grade in a subject, or nil when the subject has no grades.
func (r *QueryRepository) TopStudentInSubject(ctx context.Context, subjectName string) (*models.StudentAverage, error) {
	const query = `SELECT s.name AS name, AVG(g.grade) AS average_grade
		FROM students s
		JOIN grades g ON g.student_id = s.id
		JOIN subjects sub ON sub.id = g.subject_id
		WHERE sub.name = ?
		GROUP BY s.id, s.name
		ORDER BY average_grade DESC, s.id
		LIMIT 1`
	var row models.StudentAverage
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), subjectName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query top student in subject: %w", err)
	}
	return &row, nil
}

// GroupAveragesForSubject averages a subject's grades per group. Groups without grades in the subject are omitted.
func (r *QueryRepository) GroupAveragesForSubject(ctx context.Context, subjectName string) ([]models.GroupAverage, error) {
	const query = `SELECT gr.name AS name, AVG(g.grade) AS average_grade
		FROM groups gr
		JOIN students s ON s.group_id = gr.id
		JOIN grades g ON g.student_id = s.id
		JOIN subjects sub ON sub.id = g.subject_id
		WHERE sub.name = ?
		GROUP BY gr.id, gr.name
		ORDER BY gr.id`
	rows := []models.GroupAverage{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), subjectName); err != nil {
		return nil, fmt.Errorf("query group averages: %w", err)
	}
	return rows, nil
}

// OverallAverage is the mean over every grade, nil when no grades exist.
func (r *QueryRepository) OverallAverage(ctx context.Context) (*float64, error) {
	return r.scalarAverage(ctx, "overall average", `SELECT AVG(grade) FROM grades`)
}

// SubjectsByTeacher lists the subjects linked to the named teacher.
func (r *QueryRepository) SubjectsByTeacher(ctx context.Context, teacherName string) ([]models.Subject, error) {
	const query = `SELECT sub.id, sub.name
		FROM subjects sub
		JOIN teacher_m2m_subject ts ON ts.subject_id = sub.id
		JOIN teachers t ON t.id = ts.teacher_id
		WHERE t.name = ?
		ORDER BY sub.id`
	rows := []models.Subject{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), teacherName); err != nil {
		return nil, fmt.Errorf("query subjects by teacher: %w", err)
	}
	return rows, nil
}

// StudentsInGroup lists the students of the named group.
func (r *QueryRepository) StudentsInGroup(ctx context.Context, groupName string) ([]models.Student, error) {
	const query = `SELECT s.id, s.name, s.group_id
		FROM students s
		JOIN groups gr ON gr.id = s.group_id
		WHERE gr.name = ?
		ORDER BY s.id`
	rows := []models.Student{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), groupName); err != nil {
		return nil, fmt.Errorf("query students in group: %w", err)
	}
	return rows, nil
}

// GroupSubjectGrades returns one row per grade a group's students got in a subject.
func (r *QueryRepository) GroupSubjectGrades(ctx context.Context, groupName, subjectName string) ([]models.StudentGrade, error) {
	const query = `SELECT s.name AS student_name, g.grade AS grade
		FROM students s
		JOIN groups gr ON gr.id = s.group_id
		JOIN grades g ON g.student_id = s.id
		JOIN subjects sub ON sub.id = g.subject_id
		WHERE gr.name = ? AND sub.name = ?
		ORDER BY g.id`
	rows := []models.StudentGrade{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), groupName, subjectName); err != nil {
		return nil, fmt.Errorf("query group subject grades: %w", err)
	}
	return rows, nil
}

// TeacherAverage is the mean of every grade in the subjects the named teacher teaches.
func (r *QueryRepository) TeacherAverage(ctx context.Context, teacherName string) (*float64, error) {
	const query = `SELECT AVG(g.grade)
		FROM grades g
		JOIN teacher_m2m_subject ts ON ts.subject_id = g.subject_id
		JOIN teachers t ON t.id = ts.teacher_id
		WHERE t.name = ?`
	return r.scalarAverage(ctx, "teacher average", query, teacherName)
}

// StudentSubjects lists the distinct subjects the named student has grades in.
func (r *QueryRepository) StudentSubjects(ctx context.Context, studentName string) ([]string, error) {
	const query = `SELECT DISTINCT sub.name
		FROM subjects sub
		JOIN grades g ON g.subject_id = sub.id
		JOIN students s ON s.id = g.student_id
		WHERE s.name = ?
		ORDER BY sub.name`
	names := []string{}
	if err := r.db.SelectContext(ctx, &names, r.db.Rebind(query), studentName); err != nil {
		return nil, fmt.Errorf("query student subjects: %w", err)
	}
	return names, nil
}

// StudentSubjectsByTeacher lists the distinct subjects the named teacher graded the named student in.
func (r *QueryRepository) StudentSubjectsByTeacher(ctx context.Context, studentName, teacherName string) ([]string, error) {
	const query = `SELECT DISTINCT sub.name
		FROM subjects sub
		JOIN grades g ON g.subject_id = sub.id
		JOIN students s ON s.id = g.student_id
		JOIN teacher_m2m_subject ts ON ts.subject_id = sub.id
		JOIN teachers t ON t.id = ts.teacher_id
		WHERE s.name = ? AND t.name = ?
		ORDER BY sub.name`
	names := []string{}
	if err := r.db.SelectContext(ctx, &names, r.db.Rebind(query), studentName, teacherName); err != nil {
		return nil, fmt.Errorf("query student subjects by teacher: %w", err)
	}
	return names, nil
}

// TeacherStudentAverage is the mean grade the named teacher's subjects gave the named student.
func (r *QueryRepository) TeacherStudentAverage(ctx context.Context, teacherName, studentName string) (*float64, error) {
	const query = `SELECT AVG(g.grade)
		FROM grades g
		JOIN students s ON s.id = g.student_id
		JOIN teacher_m2m_subject ts ON ts.subject_id = g.subject_id
		JOIN teachers t ON t.id = ts.teacher_id
		WHERE t.name = ? AND s.name = ?`
	return r.scalarAverage(ctx, "teacher student average", query, teacherName, studentName)
}

// LastLessonGrades returns every grade recorded on the latest date_received for a group and subject.
// The latest date is resolved first by a scalar subquery, so all grades sharing it are returned.
func (r *QueryRepository) LastLessonGrades(ctx context.Context, groupName, subjectName string) ([]models.LessonGrade, error) {
	const query = `SELECT g.id AS grade_id, s.name AS student_name, sub.name AS subject_name,
			g.grade AS grade_value, g.date_received AS date_received
		FROM grades g
		JOIN students s ON s.id = g.student_id
		JOIN groups gr ON gr.id = s.group_id
		JOIN subjects sub ON sub.id = g.subject_id
		WHERE gr.name = ? AND sub.name = ?
		AND g.date_received = (
			SELECT MAX(g2.date_received)
			FROM grades g2
			JOIN students s2 ON s2.id = g2.student_id
			JOIN groups gr2 ON gr2.id = s2.group_id
			JOIN subjects sub2 ON sub2.id = g2.subject_id
			WHERE gr2.name = ? AND sub2.name = ?
		)
		ORDER BY g.id`
	rows := []models.LessonGrade{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), groupName, subjectName, groupName, subjectName); err != nil {
		return nil, fmt.Errorf("query last lesson grades: %w", err)
	}
	return rows, nil
}

// SampleNames collects the names that have data behind them, one list per entity.
func (r *QueryRepository) SampleNames(ctx context.Context) (*models.NameSamples, error) {
	samples := &models.NameSamples{}
	lookups := []struct {
		label string
		dest  *[]string
		query string
	}{
		{"subjects", &samples.Subjects, `SELECT DISTINCT sub.name FROM subjects sub JOIN grades g ON g.subject_id = sub.id ORDER BY sub.name`},
		{"teachers", &samples.Teachers, `SELECT DISTINCT t.name FROM teachers t
			JOIN teacher_m2m_subject ts ON ts.teacher_id = t.id
			JOIN grades g ON g.subject_id = ts.subject_id
			ORDER BY t.name`},
		{"groups", &samples.Groups, `SELECT DISTINCT gr.name FROM groups gr JOIN students s ON s.group_id = gr.id ORDER BY gr.name`},
		{"students", &samples.Students, `SELECT DISTINCT name FROM students ORDER BY name`},
	}
	for _, lookup := range lookups {
		*lookup.dest = []string{}
		if err := r.db.SelectContext(ctx, lookup.dest, lookup.query); err != nil {
			return nil, fmt.Errorf("sample %s: %w", lookup.label, err)
		}
	}
	return samples, nil
}

func (r *QueryRepository) scalarAverage(ctx context.Context, label, query string, args ...interface{}) (*float64, error) {
	var avg sql.NullFloat64
	if err := r.db.GetContext(ctx, &avg, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("query %s: %w", label, err)
	}
	if !avg.Valid {
		return nil, nil
	}
	value := avg.Float64
	return &value, nil
}

func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
