package service

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gradebook/internal/models"
	appErrors "github.com/noah-isme/gradebook/pkg/errors"
)

// QueryRepository describes the analytical queries backing QueryService.
type QueryRepository interface {
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

// QueryService runs the analytical queries with read-through caching and timing metrics.
type QueryService struct {
	repo    QueryRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewQueryService constructs a query service. cache and metrics may be nil.
func NewQueryService(repo QueryRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{repo: repo, cache: cache, metrics: metrics, logger: logger}
}

// TopStudents returns up to limit students ordered by average grade, highest first.
func (s *QueryService) TopStudents(ctx context.Context, limit int) ([]models.StudentAverage, error) {
	return cachedQuery(ctx, s, "top_students", []string{strconv.Itoa(limit)}, func(ctx context.Context) ([]models.StudentAverage, error) {
		return s.repo.TopStudents(ctx, limit)
	})
}

// TopStudentInSubject returns the best student in a subject or nil when nobody was graded.
func (s *QueryService) TopStudentInSubject(ctx context.Context, subjectName string) (*models.StudentAverage, error) {
	return cachedQuery(ctx, s, "top_student_in_subject", []string{subjectName}, func(ctx context.Context) (*models.StudentAverage, error) {
		return s.repo.TopStudentInSubject(ctx, subjectName)
	})
}

// GroupAveragesForSubject returns the average grade per group for a subject.
func (s *QueryService) GroupAveragesForSubject(ctx context.Context, subjectName string) ([]models.GroupAverage, error) {
	return cachedQuery(ctx, s, "group_averages_for_subject", []string{subjectName}, func(ctx context.Context) ([]models.GroupAverage, error) {
		return s.repo.GroupAveragesForSubject(ctx, subjectName)
	})
}

// OverallAverage returns the mean of every grade, nil when none exist.
func (s *QueryService) OverallAverage(ctx context.Context) (*float64, error) {
	return cachedQuery(ctx, s, "overall_average", nil, s.repo.OverallAverage)
}

// SubjectsByTeacher lists the subjects linked to a teacher name.
func (s *QueryService) SubjectsByTeacher(ctx context.Context, teacherName string) ([]models.Subject, error) {
	return cachedQuery(ctx, s, "subjects_by_teacher", []string{teacherName}, func(ctx context.Context) ([]models.Subject, error) {
		return s.repo.SubjectsByTeacher(ctx, teacherName)
	})
}

// StudentsInGroup lists the students of a group.
func (s *QueryService) StudentsInGroup(ctx context.Context, groupName string) ([]models.Student, error) {
	return cachedQuery(ctx, s, "students_in_group", []string{groupName}, func(ctx context.Context) ([]models.Student, error) {
		return s.repo.StudentsInGroup(ctx, groupName)
	})
}

// GroupSubjectGrades returns one row per grade of a group's students in a subject.
func (s *QueryService) GroupSubjectGrades(ctx context.Context, groupName, subjectName string) ([]models.StudentGrade, error) {
	return cachedQuery(ctx, s, "group_subject_grades", []string{groupName, subjectName}, func(ctx context.Context) ([]models.StudentGrade, error) {
		return s.repo.GroupSubjectGrades(ctx, groupName, subjectName)
	})
}

// TeacherAverage returns the average of grades in the subjects a teacher teaches.
func (s *QueryService) TeacherAverage(ctx context.Context, teacherName string) (*float64, error) {
	return cachedQuery(ctx, s, "teacher_average", []string{teacherName}, func(ctx context.Context) (*float64, error) {
		return s.repo.TeacherAverage(ctx, teacherName)
	})
}

// StudentSubjects lists the distinct subjects a student has grades in.
func (s *QueryService) StudentSubjects(ctx context.Context, studentName string) ([]string, error) {
	return cachedQuery(ctx, s, "student_subjects", []string{studentName}, func(ctx context.Context) ([]string, error) {
		return s.repo.StudentSubjects(ctx, studentName)
	})
}

// StudentSubjectsByTeacher lists the subjects a teacher teaches in which the student has grades.
func (s *QueryService) StudentSubjectsByTeacher(ctx context.Context, studentName, teacherName string) ([]string, error) {
	return cachedQuery(ctx, s, "student_subjects_by_teacher", []string{studentName, teacherName}, func(ctx context.Context) ([]string, error) {
		return s.repo.StudentSubjectsByTeacher(ctx, studentName, teacherName)
	})
}

// TeacherStudentAverage returns the average grade a student earned in a teacher's subjects.
func (s *QueryService) TeacherStudentAverage(ctx context.Context, teacherName, studentName string) (*float64, error) {
	return cachedQuery(ctx, s, "teacher_student_average", []string{teacherName, studentName}, func(ctx context.Context) (*float64, error) {
		return s.repo.TeacherStudentAverage(ctx, teacherName, studentName)
	})
}

// LastLessonGrades returns every grade given on the latest lesson of a group in a subject.
func (s *QueryService) LastLessonGrades(ctx context.Context, groupName, subjectName string) ([]models.LessonGrade, error) {
	return cachedQuery(ctx, s, "last_lesson_grades", []string{groupName, subjectName}, func(ctx context.Context) ([]models.LessonGrade, error) {
		return s.repo.LastLessonGrades(ctx, groupName, subjectName)
	})
}

// SampleNames returns the candidate names for the demo report. It is never cached.
func (s *QueryService) SampleNames(ctx context.Context) (*models.NameSamples, error) {
	samples, err := s.repo.SampleNames(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sample names")
	}
	return samples, nil
}

// SystemMetrics returns system instrumentation snapshot.
func (s *QueryService) SystemMetrics() models.SystemMetrics {
	return s.metrics.Snapshot()
}

func cachedQuery[T any](ctx context.Context, s *QueryService, label string, args []string, load func(context.Context) (T, error)) (T, error) {
	key := makeQueryCacheKey(label, args...)
	var cached T
	hit, _ := s.cache.Get(ctx, key, &cached)
	if s.cache.Enabled() {
		recordCacheHit(ctx, hit)
	}
	if hit {
		return cached, nil
	}

	generation := s.cache.Generation()
	start := time.Now()
	result, err := load(ctx)
	if err != nil {
		s.logger.Error("query failed", zap.String("query", label), zap.Error(err))
		var zero T
		return zero, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to run "+strings.ReplaceAll(label, "_", " ")+" query")
	}
	s.metrics.ObserveQuery(label, time.Since(start))

	// Skip the store when a write invalidated the cache while the query ran.
	if s.cache.Generation() != generation {
		return result, nil
	}
	if err := s.cache.Set(ctx, key, result, 0); err != nil {
		s.logger.Warn("cache query result", zap.String("query", label), zap.Error(err))
	}
	return result, nil
}

// makeQueryCacheKey builds "queries:<label>:<arg>..." with each argument query-escaped so that
// names containing separators cannot collide.
func makeQueryCacheKey(label string, args ...string) string {
	var builder strings.Builder
	builder.Grow(len(QueryCachePrefix) + len(label) + len(args)*16)
	builder.WriteString(QueryCachePrefix)
	builder.WriteByte(':')
	builder.WriteString(label)
	for _, arg := range args {
		builder.WriteByte(':')
		builder.WriteString(url.QueryEscape(arg))
	}
	return builder.String()
}
