package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Actions accepted by --action.
const (
	ActionCreate   = "create"
	ActionList     = "list"
	ActionUpdate   = "update"
	ActionRemove   = "remove"
	ActionAssign   = "assign"
	ActionUnassign = "unassign"
)

// Models accepted by --model.
const (
	ModelTeacher = "Teacher"
	ModelGroup   = "Group"
	ModelStudent = "Student"
	ModelSubject = "Subject"
	ModelGrade   = "Grade"
)

var (
	actionNames = []string{ActionCreate, ActionList, ActionUpdate, ActionRemove, ActionAssign, ActionUnassign}
	modelNames  = []string{ModelTeacher, ModelGroup, ModelStudent, ModelSubject, ModelGrade}
)

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// Options is one parsed command line.
type Options struct {
	Action       string
	Model        string
	ID           int64
	Name         string
	GroupID      int64
	StudentID    int64
	SubjectID    int64
	GradeValue   int
	DateReceived string

	flags *pflag.FlagSet
}

// Parse reads the command line. Usage and parse errors are written to stderr.
func Parse(args []string, stderr io.Writer) (*Options, error) {
	opts := &Options{}
	fs := pflag.NewFlagSet("gradebook", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.Action, "action", "a", "", "CRUD action: "+strings.Join(actionNames, "|"))
	fs.StringVarP(&opts.Model, "model", "m", "", "Model to perform action on: "+strings.Join(modelNames, "|"))
	fs.Int64Var(&opts.ID, "id", 0, "ID of the record to update or remove")
	fs.StringVar(&opts.Name, "name", "", "Name of the record to create or update")
	fs.Int64Var(&opts.GroupID, "group_id", 0, "Group ID for creating or updating a student")
	fs.Int64Var(&opts.StudentID, "student_id", 0, "Student ID for creating a grade")
	fs.Int64Var(&opts.SubjectID, "subject_id", 0, "Subject ID for creating a grade or assigning a subject")
	fs.IntVar(&opts.GradeValue, "grade_value", 0, "Grade value for creating or updating a grade")
	fs.StringVar(&opts.DateReceived, "date_received", "", "Date received, RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.flags = fs

	if !contains(actionNames, opts.Action) {
		fs.Usage()
		return nil, fmt.Errorf("invalid --action %q, choose from %s", opts.Action, strings.Join(actionNames, ", "))
	}
	if !contains(modelNames, opts.Model) {
		fs.Usage()
		return nil, fmt.Errorf("invalid --model %q, choose from %s", opts.Model, strings.Join(modelNames, ", "))
	}
	opts.Name = strings.TrimSpace(opts.Name)
	return opts, nil
}

// has reports whether a flag was supplied with a usable value. Integer flags count as soon as they
// are given so that a grade of zero is accepted.
func (o *Options) has(name string) bool {
	switch name {
	case "name":
		return o.Name != ""
	case "date_received":
		return strings.TrimSpace(o.DateReceived) != ""
	}
	if o.flags == nil {
		return false
	}
	return o.flags.Changed(name)
}

// receivedAt parses --date_received as a wall-clock time in loc.
func (o *Options) receivedAt(loc *time.Location) (*time.Time, error) {
	raw := strings.TrimSpace(o.DateReceived)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", raw)
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
