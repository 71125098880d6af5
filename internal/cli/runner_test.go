package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook/internal/repository"
	"github.com/noah-isme/gradebook/internal/service"
	"github.com/noah-isme/gradebook/pkg/config"
	"github.com/noah-isme/gradebook/pkg/database"
)

type harness struct {
	runner *Runner
	out    *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessIn(t, time.UTC)
}

func newHarnessIn(t *testing.T, loc *time.Location) *harness {
	t.Helper()
	db, err := database.Open(context.Background(), config.DatabaseConfig{
		Driver:      config.DriverSQLite,
		Path:        database.MemoryPath,
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	groups := repository.NewGroupRepository(db)
	students := repository.NewStudentRepository(db)
	teachers := repository.NewTeacherRepository(db)
	subjects := repository.NewSubjectRepository(db)
	grades := repository.NewGradeRepository(db)

	svc := Services{
		Groups:   service.NewGroupService(groups, nil, nil, service.WriteHooks{}),
		Students: service.NewStudentService(students, groups, nil, nil, service.WriteHooks{}),
		Teachers: service.NewTeacherService(teachers, subjects, nil, nil, service.WriteHooks{}),
		Subjects: service.NewSubjectService(subjects, nil, nil, service.WriteHooks{}),
		Grades:   service.NewGradeService(grades, students, subjects, nil, nil, service.WriteHooks{}),
	}
	out := &bytes.Buffer{}
	return &harness{runner: NewRunner(svc, out, nil).WithLocation(loc), out: out}
}

// run executes one command line and returns what it printed.
func (h *harness) run(t *testing.T, line string) string {
	t.Helper()
	opts, err := Parse(splitArgs(line), io.Discard)
	require.NoError(t, err)
	h.out.Reset()
	require.NoError(t, h.runner.Run(context.Background(), opts))
	return strings.TrimSpace(h.out.String())
}

func splitArgs(line string) []string {
	var args []string
	var current strings.Builder
	quoted := false
	for _, r := range line {
		switch {
		case r == '\'':
			quoted = !quoted
		case r == ' ' && !quoted:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}
	return args
}

func TestRunnerCRUDFlow(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, "Group 'Group 1' created with ID 1", h.run(t, "-a create -m Group --name 'Group 1'"))
	assert.Equal(t, "Student 'Ann' created with ID 1 in group 'Group 1'", h.run(t, "-a create -m Student --name Ann --group_id 1"))
	assert.Equal(t, "Subject 'Math' created with ID 1", h.run(t, "-a create -m Subject --name Math"))
	assert.Equal(t, "Teacher 'Bob' created with ID 1", h.run(t, "-a create -m Teacher --name Bob"))
	assert.Equal(t, "Subject with ID 1 assigned to teacher with ID 1", h.run(t, "-a assign -m Teacher --id 1 --subject_id 1"))
	assert.Equal(t, "ID: 1, Name: Math", h.run(t, "-a list -m Teacher --id 1"))

	assert.Equal(t, "Grade '85' created for student 'Ann' in subject 'Math'",
		h.run(t, "-a create -m Grade --student_id 1 --subject_id 1 --grade_value 85 --date_received 2024-05-10T09:00:00Z"))
	assert.Equal(t, "ID: 1, Student ID: 1, Subject ID: 1, Grade: 85, Date Received: 2024-05-10 09:00:00", h.run(t, "-a list -m Grade"))

	assert.Equal(t, "Grade with ID 1 updated to '0' on '2024-05-10 09:00:00'", h.run(t, "-a update -m Grade --id 1 --grade_value 0"))
	assert.Equal(t, "ID: 1, Name: Ann, Group ID: 1", h.run(t, "-a list -m Student"))

	assert.Equal(t, "Group with ID 1 removed", h.run(t, "-a remove -m Group --id 1"))
	assert.Empty(t, h.run(t, "-a list -m Student"))
	assert.Empty(t, h.run(t, "-a list -m Grade"))
	assert.Equal(t, "ID: 1, Name: Math", h.run(t, "-a list -m Subject"))
}

func TestRunnerMissingArguments(t *testing.T) {
	h := newHarness(t)

	cases := map[string]string{
		"-a create -m Teacher":                     "Name is required to create a teacher",
		"-a update -m Group --name X":              "ID and name are required to update a group",
		"-a create -m Student --name Ann":          "Name and group ID are required to create a student",
		"-a update -m Student --id 1 --name Ann":   "ID, name, and group ID are required to update a student",
		"-a remove -m Subject":                     "ID is required to remove a subject",
		"-a create -m Grade --student_id 1":        "Student ID, subject ID, and grade value are required to create a grade",
		"-a update -m Grade --id 1":                "ID and grade value are required to update a grade",
		"-a assign -m Teacher --id 1":              "ID and subject ID are required to assign a subject",
		"-a assign -m Group --id 1 --subject_id 1": "Action assign is only supported for the Teacher model",
		"-a create -m Group --name '   '":          "Name is required to create a group",
	}
	for line, want := range cases {
		assert.Equal(t, want, h.run(t, line), line)
	}
}

func TestRunnerMissingRecords(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, "No teacher found with ID 7", h.run(t, "-a update -m Teacher --id 7 --name X"))
	assert.Equal(t, "No group found with ID 3", h.run(t, "-a remove -m Group --id 3"))
	assert.Equal(t, "No group found with ID 4", h.run(t, "-a create -m Student --name Ann --group_id 4"))
	assert.Equal(t, "No student or subject found with the provided IDs",
		h.run(t, "-a create -m Grade --student_id 1 --subject_id 1 --grade_value 90"))
	assert.Equal(t, "No grade found with ID 2", h.run(t, "-a update -m Grade --id 2 --grade_value 90"))
	assert.Equal(t, "No teacher or subject found with the provided IDs", h.run(t, "-a assign -m Teacher --id 1 --subject_id 1"))
	assert.Equal(t, "Teacher with ID 1 does not teach subject with ID 1", h.run(t, "-a unassign -m Teacher --id 1 --subject_id 1"))
	assert.Empty(t, h.run(t, "-a list -m Group"))
}

func TestRunnerInvalidDate(t *testing.T) {
	h := newHarness(t)
	h.run(t, "-a create -m Group --name G")
	h.run(t, "-a create -m Student --name Ann --group_id 1")
	h.run(t, "-a create -m Subject --name Math")

	assert.Equal(t, "Invalid date received: yesterday",
		h.run(t, "-a create -m Grade --student_id 1 --subject_id 1 --grade_value 90 --date_received yesterday"))
	assert.Equal(t, "Grade '90' created for student 'Ann' in subject 'Math'",
		h.run(t, "-a create -m Grade --student_id 1 --subject_id 1 --grade_value 90 --date_received 2024-05-10"))
}

func TestParseRejectsUnknownChoices(t *testing.T) {
	_, err := Parse([]string{"-a", "drop", "-m", "Group"}, io.Discard)
	assert.Error(t, err)

	_, err = Parse([]string{"-a", "list", "-m", "Course"}, io.Discard)
	assert.Error(t, err)

	_, err = Parse([]string{"-a", "list", "-m", "Group", "--bogus"}, io.Discard)
	assert.Error(t, err)
}

func TestReceivedAtLayouts(t *testing.T) {
	for _, raw := range []string{"2024-05-10T09:00:00Z", "2024-05-10 09:00:00", "2024-05-10"} {
		opts := &Options{DateReceived: raw}
		got, err := opts.receivedAt(time.UTC)
		require.NoError(t, err, raw)
		require.NotNil(t, got)
		assert.Equal(t, 2024, got.Year())
	}

	opts := &Options{}
	got, err := opts.receivedAt(time.UTC)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRunnerPrintsDatesInEnteredZone(t *testing.T) {
	newYork := time.FixedZone("EST", -5*60*60)
	h := newHarnessIn(t, newYork)

	h.run(t, "-a create -m Group --name G")
	h.run(t, "-a create -m Student --name Ann --group_id 1")
	h.run(t, "-a create -m Subject --name Math")
	h.run(t, "-a create -m Grade --student_id 1 --subject_id 1 --grade_value 70 --date_received '2024-01-01 10:00:00'")

	assert.Equal(t, "ID: 1, Student ID: 1, Subject ID: 1, Grade: 70, Date Received: 2024-01-01 10:00:00", h.run(t, "-a list -m Grade"))
	assert.Equal(t, "Grade with ID 1 updated to '75' on '2024-01-01 10:00:00'", h.run(t, "-a update -m Grade --id 1 --grade_value 75"))
}
