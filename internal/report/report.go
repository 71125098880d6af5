package report

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/noah-isme/gradebook/internal/models"
	"github.com/noah-isme/gradebook/internal/repository"
	"github.com/noah-isme/gradebook/pkg/export"
)

const dateFormat = "2006-01-02 15:04:05"

// Queries is the analytical query surface the report runs.
type Queries interface {
	TopStudents(ctx context.Context, limit int) ([]models.StudentAverage, error)
	TopStudentInSubject(ctx context.Context, subjectName string) (*models.StudentAverage, error)
	GroupAveragesForSubject(ctx context.Context, subjectName string) ([]models.GroupAverage, error)
	OverallAverage(ctx context.Context) (*float64, error)
	SubjectsByTeacher(ctx context.Context, teacherName string) ([]models.Subject, error)
	StudentsInGroup(ctx context.Context, groupName string) ([]models.Student, error)
	GroupSubjectGrades(ctx context.Context, groupName, subjectName string) ([]models.StudentGrade, error)
	TeacherAverage(ctx context.Context, teacherName string) (*float64, error)
	StudentSubjects(ctx context.Context, studentName string) ([]string, error)
	StudentSubjectsByTeacher(ctx context.Context, studentName, teacherName string) ([]string, error)
	TeacherStudentAverage(ctx context.Context, teacherName, studentName string) (*float64, error)
	LastLessonGrades(ctx context.Context, groupName, subjectName string) ([]models.LessonGrade, error)
	SampleNames(ctx context.Context) (*models.NameSamples, error)
}

// Section is one query result, kept both as printable lines and as a table.
type Section struct {
	Lines []string
	Data  export.Dataset
}

// Builder runs every analytical query against randomly sampled names.
type Builder struct {
	queries Queries
	fake    *gofakeit.Faker
}

// NewBuilder constructs a Builder. fake decides which names are sampled.
func NewBuilder(queries Queries, fake *gofakeit.Faker) *Builder {
	return &Builder{queries: queries, fake: fake}
}

// Build runs the twelve queries in order.
func (b *Builder) Build(ctx context.Context) ([]Section, error) {
	samples, err := b.queries.SampleNames(ctx)
	if err != nil {
		return nil, err
	}
	subject := b.pick(samples.Subjects)
	teacher := b.pick(samples.Teachers)
	group := b.pick(samples.Groups)
	student := b.pick(samples.Students)

	steps := []func(context.Context) (Section, error){
		b.topStudents,
		func(ctx context.Context) (Section, error) { return b.topStudentInSubject(ctx, subject) },
		func(ctx context.Context) (Section, error) { return b.groupAverages(ctx, subject) },
		b.overallAverage,
		func(ctx context.Context) (Section, error) { return b.subjectsByTeacher(ctx, teacher) },
		func(ctx context.Context) (Section, error) { return b.studentsInGroup(ctx, group) },
		func(ctx context.Context) (Section, error) { return b.groupSubjectGrades(ctx, group, subject) },
		func(ctx context.Context) (Section, error) { return b.teacherAverage(ctx, teacher) },
		func(ctx context.Context) (Section, error) { return b.studentSubjects(ctx, student) },
		func(ctx context.Context) (Section, error) {
			return b.studentSubjectsByTeacher(ctx, b.pick(samples.Students), b.pick(samples.Teachers))
		},
		func(ctx context.Context) (Section, error) {
			return b.teacherStudentAverage(ctx, b.pick(samples.Teachers), b.pick(samples.Students))
		},
		func(ctx context.Context) (Section, error) {
			return b.lastLesson(ctx, b.pick(samples.Groups), b.pick(samples.Subjects))
		},
	}

	sections := make([]Section, 0, len(steps))
	for _, step := range steps {
		section, err := step(ctx)
		if err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}
	return sections, nil
}

func (b *Builder) pick(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return b.fake.RandomString(names)
}

func (b *Builder) topStudents(ctx context.Context) (Section, error) {
	rows, err := b.queries.TopStudents(ctx, repository.DefaultTopStudents)
	if err != nil {
		return Section{}, err
	}
	s := newSection("Top 5 students with the highest average grade across all subjects:", "student", "average_grade")
	for _, row := range rows {
		s.add(fmt.Sprintf("%s - %.2f", row.Name, row.AverageGrade), row.Name, formatAverage(row.AverageGrade))
	}
	return s, nil
}

func (b *Builder) topStudentInSubject(ctx context.Context, subject string) (Section, error) {
	row, err := b.queries.TopStudentInSubject(ctx, subject)
	if err != nil {
		return Section{}, err
	}
	s := newSection(fmt.Sprintf("Student with the highest average grade in a specific subject (subject_name=%s):", subject), "student", "average_grade")
	if row == nil {
		s.Lines = append(s.Lines, "no grades")
		return s, nil
	}
	s.add(fmt.Sprintf("%s - %.2f", row.Name, row.AverageGrade), row.Name, formatAverage(row.AverageGrade))
	return s, nil
}

func (b *Builder) groupAverages(ctx context.Context, subject string) (Section, error) {
	rows, err := b.queries.GroupAveragesForSubject(ctx, subject)
	if err != nil {
		return Section{}, err
	}
	s := newSection(fmt.Sprintf("Average grade in groups for a specific subject (subject=%s):", subject), "group", "average_grade")
	for _, row := range rows {
		s.add(fmt.Sprintf("%s - %.2f", row.Name, row.AverageGrade), row.Name, formatAverage(row.AverageGrade))
	}
	return s, nil
}

func (b *Builder) overallAverage(ctx context.Context) (Section, error) {
	avg, err := b.queries.OverallAverage(ctx)
	if err != nil {
		return Section{}, err
	}
	s := newSection("Average grade across all grades:", "average_grade")
	s.add(formatOptional(avg), formatOptional(avg))
	return s, nil
}

func (b *Builder) subjectsByTeacher(ctx context.Context, teacher string) (Section, error) {
	rows, err := b.queries.SubjectsByTeacher(ctx, teacher)
	if err != nil {
		return Section{}, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Name)
	}
	return listSection(fmt.Sprintf("Courses taught by a specific teacher (teacher_name=%s):", teacher), "subject", names), nil
}

func (b *Builder) studentsInGroup(ctx context.Context, group string) (Section, error) {
	rows, err := b.queries.StudentsInGroup(ctx, group)
	if err != nil {
		return Section{}, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Name)
	}
	return listSection(fmt.Sprintf("List of students in a specific group (group_name=%s):", group), "student", names), nil
}

func (b *Builder) groupSubjectGrades(ctx context.Context, group, subject string) (Section, error) {
	rows, err := b.queries.GroupSubjectGrades(ctx, group, subject)
	if err != nil {
		return Section{}, err
	}
	s := newSection(fmt.Sprintf("Grades of students in a specific group (group=%s) for a specific subject (subject=%s):", group, subject), "student", "grade")

	var order []string
	byStudent := make(map[string][]string)
	for _, row := range rows {
		if _, seen := byStudent[row.StudentName]; !seen {
			order = append(order, row.StudentName)
		}
		value := strconv.Itoa(row.Grade)
		byStudent[row.StudentName] = append(byStudent[row.StudentName], value)
		s.Data.Rows = append(s.Data.Rows, map[string]string{"student": row.StudentName, "grade": value})
	}
	for _, name := range order {
		s.Lines = append(s.Lines, fmt.Sprintf("%s - (%s)", name, strings.Join(byStudent[name], ", ")))
	}
	return s, nil
}

func (b *Builder) teacherAverage(ctx context.Context, teacher string) (Section, error) {
	avg, err := b.queries.TeacherAverage(ctx, teacher)
	if err != nil {
		return Section{}, err
	}
	s := newSection(fmt.Sprintf("Average grade given by a specific teacher (teacher_name=%s) across their subjects:", teacher), "average_grade")
	s.add(formatOptional(avg), formatOptional(avg))
	return s, nil
}

func (b *Builder) studentSubjects(ctx context.Context, student string) (Section, error) {
	names, err := b.queries.StudentSubjects(ctx, student)
	if err != nil {
		return Section{}, err
	}
	return listSection(fmt.Sprintf("List of courses attended by a specific student (student_name=%s):", student), "subject", names), nil
}

func (b *Builder) studentSubjectsByTeacher(ctx context.Context, student, teacher string) (Section, error) {
	names, err := b.queries.StudentSubjectsByTeacher(ctx, student, teacher)
	if err != nil {
		return Section{}, err
	}
	title := fmt.Sprintf("List of courses taught by a specific teacher (teacher_name=%s) to a specific student (student_name=%s):", teacher, student)
	return listSection(title, "subject", names), nil
}

func (b *Builder) teacherStudentAverage(ctx context.Context, teacher, student string) (Section, error) {
	avg, err := b.queries.TeacherStudentAverage(ctx, teacher, student)
	if err != nil {
		return Section{}, err
	}
	s := newSection(fmt.Sprintf("Average grade given by %s to %s:", teacher, student), "average_grade")
	s.add(formatOptional(avg), formatOptional(avg))
	return s, nil
}

func (b *Builder) lastLesson(ctx context.Context, group, subject string) (Section, error) {
	rows, err := b.queries.LastLessonGrades(ctx, group, subject)
	if err != nil {
		return Section{}, err
	}
	s := newSection(fmt.Sprintf("Grades of students in group: %s for subject: %s on the last lesson:", group, subject),
		"student", "subject", "grade", "date")
	for _, row := range rows {
		date := row.DateReceived.Format(dateFormat)
		s.add(fmt.Sprintf("Student: %s, Subject: %s, Grade: %d, Date: %s", row.StudentName, row.SubjectName, row.GradeValue, date),
			row.StudentName, row.SubjectName, strconv.Itoa(row.GradeValue), date)
	}
	return s, nil
}

func newSection(title string, headers ...string) Section {
	return Section{Data: export.Dataset{Title: title, Headers: headers, Rows: []map[string]string{}}}
}

// add appends a printable line and a table row whose values follow the header order.
func (s *Section) add(line string, values ...string) {
	s.Lines = append(s.Lines, line)
	row := make(map[string]string, len(values))
	for i, value := range values {
		row[s.Data.Headers[i]] = value
	}
	s.Data.Rows = append(s.Data.Rows, row)
}

func listSection(title, header string, names []string) Section {
	s := newSection(title, header)
	for _, name := range names {
		s.Data.Rows = append(s.Data.Rows, map[string]string{header: name})
	}
	s.Lines = []string{strings.Join(names, ", ")}
	return s
}

func formatAverage(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return formatAverage(*v)
}

// WriteText prints the sections the way the interactive report shows them.
func WriteText(w io.Writer, sections []Section) error {
	for i, section := range sections {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, section.Data.Title); err != nil {
			return err
		}
		for _, line := range section.Lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

// Datasets returns the tables of every section in order.
func Datasets(sections []Section) []export.Dataset {
	out := make([]export.Dataset, 0, len(sections))
	for _, section := range sections {
		out = append(out, section.Data)
	}
	return out
}
