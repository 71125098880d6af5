package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook/internal/models"
)

func TestQueryRepositoryTopStudentsDefaultsLimit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQueryRepository(db)

	mock.ExpectQuery(`(?s)SELECT s.name AS name, AVG\(g.grade\) AS average_grade.*GROUP BY s.id, s.name.*ORDER BY average_grade DESC, s.id.*LIMIT \$1`).
		WithArgs(DefaultTopStudents).
		WillReturnRows(sqlmock.NewRows([]string{"name", "average_grade"}).AddRow("Student 3", 95.0).AddRow("Student 2", 90.0))

	rows, err := repo.TopStudents(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []models.StudentAverage{{Name: "Student 3", AverageGrade: 95}, {Name: "Student 2", AverageGrade: 90}}, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryRepositoryTopStudentInSubjectEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQueryRepository(db)

	mock.ExpectQuery(`(?s)WHERE sub.name = \$1.*LIMIT 1`).
		WithArgs("Art").
		WillReturnError(sql.ErrNoRows)

	row, err := repo.TopStudentInSubject(context.Background(), "Art")
	require.NoError(t, err)
	assert.Nil(t, row)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryRepositoryOverallAverageNullOnEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQueryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT AVG(grade) FROM grades")).
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT AVG(grade) FROM grades")).
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow("87.5000000000000000"))

	avg, err := repo.OverallAverage(context.Background())
	require.NoError(t, err)
	assert.Nil(t, avg)

	avg, err = repo.OverallAverage(context.Background())
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.InDelta(t, 87.5, *avg, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryRepositoryLastLessonBindsFiltersTwice(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQueryRepository(db)

	when := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)WHERE gr.name = \$1 AND sub.name = \$2.*SELECT MAX\(g2.date_received\).*WHERE gr2.name = \$3 AND sub2.name = \$4`).
		WithArgs("Group 1", "Math", "Group 1", "Math").
		WillReturnRows(sqlmock.NewRows([]string{"grade_id", "student_name", "subject_name", "grade_value", "date_received"}).
			AddRow(1, "Student 1", "Math", 85, when).
			AddRow(2, "Student 2", "Math", 90, when))

	rows, err := repo.LastLessonGrades(context.Background(), "Group 1", "Math")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Student 2", rows[1].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryRepositorySampleNames(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQueryRepository(db)

	mock.ExpectQuery("SELECT DISTINCT sub.name FROM subjects").WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Math"))
	mock.ExpectQuery("SELECT DISTINCT t.name FROM teachers").WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Teacher 1"))
	mock.ExpectQuery("SELECT DISTINCT gr.name FROM groups").WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectQuery("SELECT DISTINCT name FROM students").WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Student 1"))

	samples, err := repo.SampleNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Math"}, samples.Subjects)
	assert.Equal(t, []string{"Teacher 1"}, samples.Teachers)
	assert.Empty(t, samples.Groups)
	assert.Equal(t, []string{"Student 1"}, samples.Students)
	assert.NoError(t, mock.ExpectationsWereMet())
}
