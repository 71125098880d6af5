package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook/internal/models"
	"github.com/noah-isme/gradebook/internal/service"
	"github.com/noah-isme/gradebook/pkg/config"
)

const (
	minGradeValue = 60
	maxGradeValue = 100
)

// Services are the write paths the seeder fills.
type Services struct {
	Groups   *service.GroupService
	Students *service.StudentService
	Teachers *service.TeacherService
	Subjects *service.SubjectService
	Grades   *service.GradeService
}

// Summary counts the rows the seeder created.
type Summary struct {
	Groups   int
	Teachers int
	Subjects int
	Students int
	Links    int
	Grades   int
}

// Seeder generates a random demo dataset. The same faker seed yields the same dataset.
type Seeder struct {
	svc    Services
	cfg    config.SeedConfig
	fake   *gofakeit.Faker
	now    func() time.Time
	logger *zap.Logger
}

// New constructs a Seeder.
func New(svc Services, cfg config.SeedConfig, fake *gofakeit.Faker, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fake == nil {
		fake = gofakeit.New(0)
	}
	return &Seeder{svc: svc, cfg: cfg, fake: fake, now: time.Now, logger: logger}
}

// Run creates groups, teachers, subjects with 1..N teachers each, students spread over the
// groups, and between MinGrades and MaxGrades grades per student and subject dated within the
// last year.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	groups := make([]*models.Group, 0, s.cfg.Groups)
	for i := 0; i < s.cfg.Groups; i++ {
		group, err := s.svc.Groups.Create(ctx, service.GroupRequest{Name: fmt.Sprintf("%s-%d", s.fake.Word(), i+1)})
		if err != nil {
			return summary, fmt.Errorf("create group: %w", err)
		}
		groups = append(groups, group)
	}
	summary.Groups = len(groups)

	teachers := make([]*models.Teacher, 0, s.cfg.Teachers)
	for i := 0; i < s.cfg.Teachers; i++ {
		teacher, err := s.svc.Teachers.Create(ctx, service.TeacherRequest{Name: s.fake.Name()})
		if err != nil {
			return summary, fmt.Errorf("create teacher: %w", err)
		}
		teachers = append(teachers, teacher)
	}
	summary.Teachers = len(teachers)

	subjects := make([]*models.Subject, 0, s.cfg.Subjects)
	for i := 0; i < s.cfg.Subjects; i++ {
		subject, err := s.svc.Subjects.Create(ctx, service.SubjectRequest{Name: s.fake.Word()})
		if err != nil {
			return summary, fmt.Errorf("create subject: %w", err)
		}
		subjects = append(subjects, subject)
	}
	summary.Subjects = len(subjects)

	if len(teachers) > 0 {
		for _, subject := range subjects {
			count := s.fake.Number(1, len(teachers))
			for _, idx := range s.perm(len(teachers))[:count] {
				if err := s.svc.Teachers.AssignSubject(ctx, teachers[idx].ID, subject.ID); err != nil {
					return summary, fmt.Errorf("assign subject: %w", err)
				}
				summary.Links++
			}
		}
	}

	if len(groups) == 0 {
		return summary, nil
	}

	now := s.now()
	yearAgo := now.AddDate(-1, 0, 0)
	for i := 0; i < s.cfg.Students; i++ {
		group := groups[s.fake.Number(0, len(groups)-1)]
		student, _, err := s.svc.Students.Create(ctx, service.StudentRequest{Name: s.fake.Name(), GroupID: group.ID})
		if err != nil {
			return summary, fmt.Errorf("create student: %w", err)
		}
		summary.Students++

		for _, subject := range subjects {
			for n := s.gradeCount(); n > 0; n-- {
				value := s.fake.Number(minGradeValue, maxGradeValue)
				received := s.fake.DateRange(yearAgo, now).Truncate(time.Second)
				_, err := s.svc.Grades.Create(ctx, service.CreateGradeRequest{
					StudentID:    student.ID,
					SubjectID:    subject.ID,
					Grade:        &value,
					DateReceived: &received,
				})
				if err != nil {
					return summary, fmt.Errorf("create grade: %w", err)
				}
				summary.Grades++
			}
		}
	}

	s.logger.Info("database filled with generated data",
		zap.Int("groups", summary.Groups),
		zap.Int("teachers", summary.Teachers),
		zap.Int("subjects", summary.Subjects),
		zap.Int("students", summary.Students),
		zap.Int("links", summary.Links),
		zap.Int("grades", summary.Grades),
	)
	return summary, nil
}

func (s *Seeder) gradeCount() int {
	if s.cfg.MaxGrades <= s.cfg.MinGrades {
		return s.cfg.MinGrades
	}
	return s.fake.Number(s.cfg.MinGrades, s.cfg.MaxGrades)
}

// perm returns the indexes 0..n-1 in random order.
func (s *Seeder) perm(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	s.fake.ShuffleInts(idx)
	return idx
}
