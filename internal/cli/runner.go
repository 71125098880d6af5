package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gradebook/internal/service"
	appErrors "github.com/noah-isme/gradebook/pkg/errors"
)

const dateFormat = "2006-01-02 15:04:05"

// Services groups the mutation services the command line drives.
type Services struct {
	Groups   *service.GroupService
	Students *service.StudentService
	Teachers *service.TeacherService
	Subjects *service.SubjectService
	Grades   *service.GradeService
}

// Runner executes parsed commands and prints user-facing results.
type Runner struct {
	svc    Services
	out    io.Writer
	logger *zap.Logger
	loc    *time.Location
}

// NewRunner constructs a Runner writing to out.
func NewRunner(svc Services, out io.Writer, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{svc: svc, out: out, logger: logger, loc: time.Local}
}

// WithLocation sets the zone dates are read and printed in. The default is the local zone.
func (r *Runner) WithLocation(loc *time.Location) *Runner {
	if loc != nil {
		r.loc = loc
	}
	return r
}

// Run dispatches one command. Missing arguments and missing records are reported on the output and
// do not produce an error; only unexpected failures are returned.
func (r *Runner) Run(ctx context.Context, opts *Options) error {
	if opts.Action == ActionAssign || opts.Action == ActionUnassign {
		if opts.Model != ModelTeacher {
			r.printf("Action %s is only supported for the Teacher model", opts.Action)
			return nil
		}
		return r.teacherSubject(ctx, opts)
	}

	switch opts.Model {
	case ModelTeacher:
		return r.teacher(ctx, opts)
	case ModelGroup:
		return r.group(ctx, opts)
	case ModelStudent:
		return r.student(ctx, opts)
	case ModelSubject:
		return r.subject(ctx, opts)
	case ModelGrade:
		return r.grade(ctx, opts)
	}
	return fmt.Errorf("unsupported model %q", opts.Model)
}

func (r *Runner) teacher(ctx context.Context, opts *Options) error {
	switch opts.Action {
	case ActionCreate:
		if !opts.has("name") {
			r.printf("Name is required to create a teacher")
			return nil
		}
		teacher, err := r.svc.Teachers.Create(ctx, service.TeacherRequest{Name: opts.Name})
		if err != nil {
			return r.fail(err, "teacher", 0)
		}
		r.printf("Teacher '%s' created with ID %d", teacher.Name, teacher.ID)
	case ActionList:
		if opts.has("id") {
			subjects, err := r.svc.Teachers.ListSubjects(ctx, opts.ID)
			if err != nil {
				return r.fail(err, "teacher", opts.ID)
			}
			for _, subject := range subjects {
				r.printf("ID: %d, Name: %s", subject.ID, subject.Name)
			}
			return nil
		}
		teachers, err := r.svc.Teachers.List(ctx)
		if err != nil {
			return err
		}
		for _, teacher := range teachers {
			r.printf("ID: %d, Name: %s", teacher.ID, teacher.Name)
		}
	case ActionUpdate:
		if !opts.has("id") || !opts.has("name") {
			r.printf("ID and name are required to update a teacher")
			return nil
		}
		if _, err := r.svc.Teachers.Update(ctx, opts.ID, service.TeacherRequest{Name: opts.Name}); err != nil {
			return r.fail(err, "teacher", opts.ID)
		}
		r.printf("Teacher with ID %d updated to '%s'", opts.ID, opts.Name)
	case ActionRemove:
		if !opts.has("id") {
			r.printf("ID is required to remove a teacher")
			return nil
		}
		if err := r.svc.Teachers.Delete(ctx, opts.ID); err != nil {
			return r.fail(err, "teacher", opts.ID)
		}
		r.printf("Teacher with ID %d removed", opts.ID)
	}
	return nil
}

func (r *Runner) teacherSubject(ctx context.Context, opts *Options) error {
	if !opts.has("id") || !opts.has("subject_id") {
		r.printf("ID and subject ID are required to %s a subject", opts.Action)
		return nil
	}
	if opts.Action == ActionAssign {
		err := r.svc.Teachers.AssignSubject(ctx, opts.ID, opts.SubjectID)
		if errors.Is(err, appErrors.ErrReferenceNotFound) {
			r.printf("No teacher or subject found with the provided IDs")
			return nil
		}
		if err != nil {
			return err
		}
		r.printf("Subject with ID %d assigned to teacher with ID %d", opts.SubjectID, opts.ID)
		return nil
	}

	err := r.svc.Teachers.UnassignSubject(ctx, opts.ID, opts.SubjectID)
	if errors.Is(err, appErrors.ErrNotFound) {
		r.printf("Teacher with ID %d does not teach subject with ID %d", opts.ID, opts.SubjectID)
		return nil
	}
	if err != nil {
		return err
	}
	r.printf("Subject with ID %d unassigned from teacher with ID %d", opts.SubjectID, opts.ID)
	return nil
}

func (r *Runner) group(ctx context.Context, opts *Options) error {
	switch opts.Action {
	case ActionCreate:
		if !opts.has("name") {
			r.printf("Name is required to create a group")
			return nil
		}
		group, err := r.svc.Groups.Create(ctx, service.GroupRequest{Name: opts.Name})
		if err != nil {
			return r.fail(err, "group", 0)
		}
		r.printf("Group '%s' created with ID %d", group.Name, group.ID)
	case ActionList:
		groups, err := r.svc.Groups.List(ctx)
		if err != nil {
			return err
		}
		for _, group := range groups {
			r.printf("ID: %d, Name: %s", group.ID, group.Name)
		}
	case ActionUpdate:
		if !opts.has("id") || !opts.has("name") {
			r.printf("ID and name are required to update a group")
			return nil
		}
		if _, err := r.svc.Groups.Update(ctx, opts.ID, service.GroupRequest{Name: opts.Name}); err != nil {
			return r.fail(err, "group", opts.ID)
		}
		r.printf("Group with ID %d updated to '%s'", opts.ID, opts.Name)
	case ActionRemove:
		if !opts.has("id") {
			r.printf("ID is required to remove a group")
			return nil
		}
		if err := r.svc.Groups.Delete(ctx, opts.ID); err != nil {
			return r.fail(err, "group", opts.ID)
		}
		r.printf("Group with ID %d removed", opts.ID)
	}
	return nil
}

func (r *Runner) student(ctx context.Context, opts *Options) error {
	switch opts.Action {
	case ActionCreate:
		if !opts.has("name") || !opts.has("group_id") {
			r.printf("Name and group ID are required to create a student")
			return nil
		}
		student, group, err := r.svc.Students.Create(ctx, service.StudentRequest{Name: opts.Name, GroupID: opts.GroupID})
		if errors.Is(err, appErrors.ErrReferenceNotFound) {
			r.printf("No group found with ID %d", opts.GroupID)
			return nil
		}
		if err != nil {
			return r.fail(err, "student", 0)
		}
		r.printf("Student '%s' created with ID %d in group '%s'", student.Name, student.ID, group.Name)
	case ActionList:
		students, err := r.svc.Students.List(ctx)
		if err != nil {
			return err
		}
		for _, student := range students {
			r.printf("ID: %d, Name: %s, Group ID: %d", student.ID, student.Name, student.GroupID)
		}
	case ActionUpdate:
		if !opts.has("id") || !opts.has("name") || !opts.has("group_id") {
			r.printf("ID, name, and group ID are required to update a student")
			return nil
		}
		_, err := r.svc.Students.Update(ctx, opts.ID, service.StudentRequest{Name: opts.Name, GroupID: opts.GroupID})
		if errors.Is(err, appErrors.ErrReferenceNotFound) {
			r.printf("No group found with ID %d", opts.GroupID)
			return nil
		}
		if err != nil {
			return r.fail(err, "student", opts.ID)
		}
		r.printf("Student with ID %d updated to '%s' in group ID %d", opts.ID, opts.Name, opts.GroupID)
	case ActionRemove:
		if !opts.has("id") {
			r.printf("ID is required to remove a student")
			return nil
		}
		if err := r.svc.Students.Delete(ctx, opts.ID); err != nil {
			return r.fail(err, "student", opts.ID)
		}
		r.printf("Student with ID %d removed", opts.ID)
	}
	return nil
}

func (r *Runner) subject(ctx context.Context, opts *Options) error {
	switch opts.Action {
	case ActionCreate:
		if !opts.has("name") {
			r.printf("Name is required to create a subject")
			return nil
		}
		subject, err := r.svc.Subjects.Create(ctx, service.SubjectRequest{Name: opts.Name})
		if err != nil {
			return r.fail(err, "subject", 0)
		}
		r.printf("Subject '%s' created with ID %d", subject.Name, subject.ID)
	case ActionList:
		subjects, err := r.svc.Subjects.List(ctx)
		if err != nil {
			return err
		}
		for _, subject := range subjects {
			r.printf("ID: %d, Name: %s", subject.ID, subject.Name)
		}
	case ActionUpdate:
		if !opts.has("id") || !opts.has("name") {
			r.printf("ID and name are required to update a subject")
			return nil
		}
		if _, err := r.svc.Subjects.Update(ctx, opts.ID, service.SubjectRequest{Name: opts.Name}); err != nil {
			return r.fail(err, "subject", opts.ID)
		}
		r.printf("Subject with ID %d updated to '%s'", opts.ID, opts.Name)
	case ActionRemove:
		if !opts.has("id") {
			r.printf("ID is required to remove a subject")
			return nil
		}
		if err := r.svc.Subjects.Delete(ctx, opts.ID); err != nil {
			return r.fail(err, "subject", opts.ID)
		}
		r.printf("Subject with ID %d removed", opts.ID)
	}
	return nil
}

func (r *Runner) grade(ctx context.Context, opts *Options) error {
	switch opts.Action {
	case ActionCreate:
		if !opts.has("student_id") || !opts.has("subject_id") || !opts.has("grade_value") {
			r.printf("Student ID, subject ID, and grade value are required to create a grade")
			return nil
		}
		received, err := opts.receivedAt(r.loc)
		if err != nil {
			r.printf("Invalid date received: %s", opts.DateReceived)
			return nil
		}
		value := opts.GradeValue
		result, err := r.svc.Grades.Create(ctx, service.CreateGradeRequest{
			StudentID:    opts.StudentID,
			SubjectID:    opts.SubjectID,
			Grade:        &value,
			DateReceived: received,
		})
		if errors.Is(err, appErrors.ErrReferenceNotFound) {
			r.printf("No student or subject found with the provided IDs")
			return nil
		}
		if err != nil {
			return r.fail(err, "grade", 0)
		}
		r.printf("Grade '%d' created for student '%s' in subject '%s'", result.Grade.Grade, result.Student.Name, result.Subject.Name)
	case ActionList:
		grades, err := r.svc.Grades.List(ctx)
		if err != nil {
			return err
		}
		for _, grade := range grades {
			r.printf("ID: %d, Student ID: %d, Subject ID: %d, Grade: %d, Date Received: %s",
				grade.ID, grade.StudentID, grade.SubjectID, grade.Grade, grade.DateReceived.In(r.loc).Format(dateFormat))
		}
	case ActionUpdate:
		if !opts.has("id") || !opts.has("grade_value") {
			r.printf("ID and grade value are required to update a grade")
			return nil
		}
		received, err := opts.receivedAt(r.loc)
		if err != nil {
			r.printf("Invalid date received: %s", opts.DateReceived)
			return nil
		}
		value := opts.GradeValue
		grade, err := r.svc.Grades.Update(ctx, opts.ID, service.UpdateGradeRequest{Grade: &value, DateReceived: received})
		if err != nil {
			return r.fail(err, "grade", opts.ID)
		}
		r.printf("Grade with ID %d updated to '%d' on '%s'", opts.ID, grade.Grade, grade.DateReceived.In(r.loc).Format(dateFormat))
	case ActionRemove:
		if !opts.has("id") {
			r.printf("ID is required to remove a grade")
			return nil
		}
		if err := r.svc.Grades.Delete(ctx, opts.ID); err != nil {
			return r.fail(err, "grade", opts.ID)
		}
		r.printf("Grade with ID %d removed", opts.ID)
	}
	return nil
}

// fail prints the user-facing outcome for expected errors and returns the rest.
func (r *Runner) fail(err error, entity string, id int64) error {
	switch {
	case errors.Is(err, appErrors.ErrNotFound):
		r.printf("No %s found with ID %d", entity, id)
		return nil
	case errors.Is(err, appErrors.ErrValidation):
		r.printf("Invalid %s: %s", entity, validationDetail(err))
		return nil
	}
	r.logger.Error("command failed", zap.String("entity", entity), zap.Int64("id", id), zap.Error(err))
	return err
}

func validationDetail(err error) string {
	appErr := appErrors.FromError(err)
	if appErr.Err == nil {
		return appErr.Message
	}
	return strings.TrimSpace(appErr.Err.Error())
}

func (r *Runner) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format+"\n", args...)
}
