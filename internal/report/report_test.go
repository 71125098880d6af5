package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook/internal/models"
)

type fakeQueries struct {
	names     *models.NameSamples
	sampleErr error
	topLimit  int
}

func (f *fakeQueries) TopStudents(ctx context.Context, limit int) ([]models.StudentAverage, error) {
	f.topLimit = limit
	return []models.StudentAverage{{Name: "Anna", AverageGrade: 95}, {Name: "Bob", AverageGrade: 81.333}}, nil
}

func (f *fakeQueries) TopStudentInSubject(ctx context.Context, subjectName string) (*models.StudentAverage, error) {
	return nil, nil
}

func (f *fakeQueries) GroupAveragesForSubject(ctx context.Context, subjectName string) ([]models.GroupAverage, error) {
	return []models.GroupAverage{{Name: "Group A", AverageGrade: 88.5}}, nil
}

func (f *fakeQueries) OverallAverage(ctx context.Context) (*float64, error) {
	v := 87.25
	return &v, nil
}

func (f *fakeQueries) SubjectsByTeacher(ctx context.Context, teacherName string) ([]models.Subject, error) {
	return []models.Subject{{ID: 1, Name: "Math"}, {ID: 2, Name: "Physics"}}, nil
}

func (f *fakeQueries) StudentsInGroup(ctx context.Context, groupName string) ([]models.Student, error) {
	return []models.Student{{ID: 1, Name: "Anna", GroupID: 1}}, nil
}

func (f *fakeQueries) GroupSubjectGrades(ctx context.Context, groupName, subjectName string) ([]models.StudentGrade, error) {
	return []models.StudentGrade{
		{StudentName: "Anna", Grade: 85},
		{StudentName: "Bob", Grade: 70},
		{StudentName: "Anna", Grade: 90},
	}, nil
}

func (f *fakeQueries) TeacherAverage(ctx context.Context, teacherName string) (*float64, error) {
	return nil, nil
}

func (f *fakeQueries) StudentSubjects(ctx context.Context, studentName string) ([]string, error) {
	return []string{"Math"}, nil
}

func (f *fakeQueries) StudentSubjectsByTeacher(ctx context.Context, studentName, teacherName string) ([]string, error) {
	return []string{}, nil
}

func (f *fakeQueries) TeacherStudentAverage(ctx context.Context, teacherName, studentName string) (*float64, error) {
	v := 90.0
	return &v, nil
}

func (f *fakeQueries) LastLessonGrades(ctx context.Context, groupName, subjectName string) ([]models.LessonGrade, error) {
	return []models.LessonGrade{{
		GradeID:      7,
		StudentName:  "Anna",
		SubjectName:  "Math",
		GradeValue:   90,
		DateReceived: time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
	}}, nil
}

func (f *fakeQueries) SampleNames(ctx context.Context) (*models.NameSamples, error) {
	if f.sampleErr != nil {
		return nil, f.sampleErr
	}
	return f.names, nil
}

func newFake() *fakeQueries {
	return &fakeQueries{names: &models.NameSamples{
		Subjects: []string{"Math"},
		Teachers: []string{"Mr Smith"},
		Groups:   []string{"Group A"},
		Students: []string{"Anna"},
	}}
}

func TestBuildProducesTwelveSections(t *testing.T) {
	fake := newFake()
	sections, err := NewBuilder(fake, gofakeit.New(1)).Build(context.Background())
	require.NoError(t, err)
	require.Len(t, sections, 12)
	assert.Equal(t, 5, fake.topLimit)

	assert.Equal(t, "Top 5 students with the highest average grade across all subjects:", sections[0].Data.Title)
	assert.Equal(t, []string{"Anna - 95.00", "Bob - 81.33"}, sections[0].Lines)
	assert.Equal(t, "81.33", sections[0].Data.Rows[1]["average_grade"])

	assert.Equal(t, []string{"no grades"}, sections[1].Lines)
	assert.Empty(t, sections[1].Data.Rows)

	assert.Equal(t, []string{"87.25"}, sections[3].Lines)
	assert.Equal(t, []string{"Math, Physics"}, sections[4].Lines)
	assert.Equal(t, []string{"Anna - (85, 90)", "Bob - (70)"}, sections[6].Lines)
	assert.Len(t, sections[6].Data.Rows, 3)
	assert.Equal(t, []string{"n/a"}, sections[7].Lines)
	assert.Equal(t, []string{""}, sections[9].Lines)
	assert.Equal(t, "Average grade given by Mr Smith to Anna:", sections[10].Data.Title)
	assert.Equal(t, []string{"Student: Anna, Subject: Math, Grade: 90, Date: 2024-05-10 09:00:00"}, sections[11].Lines)
	assert.Equal(t, map[string]string{
		"student": "Anna",
		"subject": "Math",
		"grade":   "90",
		"date":    "2024-05-10 09:00:00",
	}, sections[11].Data.Rows[0])
}

func TestBuildPropagatesErrors(t *testing.T) {
	fake := newFake()
	fake.sampleErr = errors.New("db down")

	_, err := NewBuilder(fake, gofakeit.New(1)).Build(context.Background())
	require.EqualError(t, err, "db down")
}

func TestBuildToleratesEmptyDatabase(t *testing.T) {
	fake := newFake()
	fake.names = &models.NameSamples{}

	sections, err := NewBuilder(fake, gofakeit.New(1)).Build(context.Background())
	require.NoError(t, err)
	assert.Contains(t, sections[1].Data.Title, "(subject_name=)")
}

func TestWriteText(t *testing.T) {
	sections := []Section{newSection("First:", "value"), newSection("Second:", "value")}
	sections[0].add("1", "1")
	sections[1].add("2", "2")

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sections))
	assert.Equal(t, "First:\n1\n\nSecond:\n2\n", buf.String())

	datasets := Datasets(sections)
	require.Len(t, datasets, 2)
	assert.True(t, strings.HasPrefix(datasets[1].Title, "Second"))
}

func TestPickIsReproducibleForASeed(t *testing.T) {
	names := []string{"Anna", "Bob", "Clara", "Daniel", "Elena"}
	first, second := NewBuilder(nil, gofakeit.New(9)), NewBuilder(nil, gofakeit.New(9))
	for i := 0; i < 10; i++ {
		picked := first.pick(names)
		assert.Contains(t, names, picked)
		assert.Equal(t, picked, second.pick(names))
	}
	assert.Empty(t, first.pick(nil))
}
