package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/gradebook/internal/models"
	appErrors "github.com/noah-isme/gradebook/pkg/errors"
)

var errStorage = errors.New("storage unavailable")

type mockGroupRepo struct {
	items     map[int64]*models.Group
	nextID    int64
	createErr error
	deleted   []int64
}

func newMockGroupRepo(groups ...models.Group) *mockGroupRepo {
	m := &mockGroupRepo{items: make(map[int64]*models.Group)}
	for i := range groups {
		g := groups[i]
		m.items[g.ID] = &g
		if g.ID > m.nextID {
			m.nextID = g.ID
		}
	}
	return m
}

func (m *mockGroupRepo) List(ctx context.Context) ([]models.Group, error) {
	out := []models.Group{}
	for _, g := range m.items {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockGroupRepo) FindByID(ctx context.Context, id int64) (*models.Group, error) {
	if g, ok := m.items[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGroupRepo) Create(ctx context.Context, group *models.Group) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	group.ID = m.nextID
	cp := *group
	m.items[group.ID] = &cp
	return nil
}

func (m *mockGroupRepo) Update(ctx context.Context, group *models.Group) error {
	cp := *group
	m.items[group.ID] = &cp
	return nil
}

func (m *mockGroupRepo) Delete(ctx context.Context, id int64) error {
	delete(m.items, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockStudentRepo struct {
	items   map[int64]*models.Student
	nextID  int64
	creates int
	updates int
}

func newMockStudentRepo(students ...models.Student) *mockStudentRepo {
	m := &mockStudentRepo{items: make(map[int64]*models.Student)}
	for i := range students {
		s := students[i]
		m.items[s.ID] = &s
		if s.ID > m.nextID {
			m.nextID = s.ID
		}
	}
	return m
}

func (m *mockStudentRepo) List(ctx context.Context) ([]models.Student, error) {
	out := []models.Student{}
	for _, s := range m.items {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	if s, ok := m.items[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	m.creates++
	m.nextID++
	student.ID = m.nextID
	cp := *student
	m.items[student.ID] = &cp
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	m.updates++
	cp := *student
	m.items[student.ID] = &cp
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

type mockSubjectRepo struct {
	items  map[int64]*models.Subject
	nextID int64
	err    error
}

func newMockSubjectRepo(subjects ...models.Subject) *mockSubjectRepo {
	m := &mockSubjectRepo{items: make(map[int64]*models.Subject)}
	for i := range subjects {
		s := subjects[i]
		m.items[s.ID] = &s
		if s.ID > m.nextID {
			m.nextID = s.ID
		}
	}
	return m
}

func (m *mockSubjectRepo) List(ctx context.Context) ([]models.Subject, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []models.Subject{}
	for _, s := range m.items {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockSubjectRepo) FindByID(ctx context.Context, id int64) (*models.Subject, error) {
	if m.err != nil {
		return nil, m.err
	}
	if s, ok := m.items[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	m.nextID++
	subject.ID = m.nextID
	cp := *subject
	m.items[subject.ID] = &cp
	return nil
}

func (m *mockSubjectRepo) Update(ctx context.Context, subject *models.Subject) error {
	cp := *subject
	m.items[subject.ID] = &cp
	return nil
}

func (m *mockSubjectRepo) Delete(ctx context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

type mockTeacherRepo struct {
	items    map[int64]*models.Teacher
	links    map[[2]int64]bool
	subjects *mockSubjectRepo
	nextID   int64
}

func newMockTeacherRepo(subjects *mockSubjectRepo, teachers ...models.Teacher) *mockTeacherRepo {
	m := &mockTeacherRepo{items: make(map[int64]*models.Teacher), links: make(map[[2]int64]bool), subjects: subjects}
	for i := range teachers {
		t := teachers[i]
		m.items[t.ID] = &t
		if t.ID > m.nextID {
			m.nextID = t.ID
		}
	}
	return m
}

func (m *mockTeacherRepo) List(ctx context.Context) ([]models.Teacher, error) {
	out := []models.Teacher{}
	for _, t := range m.items {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockTeacherRepo) FindByID(ctx context.Context, id int64) (*models.Teacher, error) {
	if t, ok := m.items[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	m.nextID++
	teacher.ID = m.nextID
	cp := *teacher
	m.items[teacher.ID] = &cp
	return nil
}

func (m *mockTeacherRepo) Update(ctx context.Context, teacher *models.Teacher) error {
	cp := *teacher
	m.items[teacher.ID] = &cp
	return nil
}

func (m *mockTeacherRepo) Delete(ctx context.Context, id int64) error {
	delete(m.items, id)
	for link := range m.links {
		if link[0] == id {
			delete(m.links, link)
		}
	}
	return nil
}

func (m *mockTeacherRepo) AssignSubject(ctx context.Context, teacherID, subjectID int64) error {
	m.links[[2]int64{teacherID, subjectID}] = true
	return nil
}

func (m *mockTeacherRepo) UnassignSubject(ctx context.Context, teacherID, subjectID int64) (bool, error) {
	key := [2]int64{teacherID, subjectID}
	if !m.links[key] {
		return false, nil
	}
	delete(m.links, key)
	return true, nil
}

func (m *mockTeacherRepo) ListSubjects(ctx context.Context, teacherID int64) ([]models.Subject, error) {
	out := []models.Subject{}
	for link := range m.links {
		if link[0] != teacherID {
			continue
		}
		if s, ok := m.subjects.items[link[1]]; ok {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type mockGradeRepo struct {
	items  map[int64]*models.Grade
	nextID int64
	writes int
}

func newMockGradeRepo(grades ...models.Grade) *mockGradeRepo {
	m := &mockGradeRepo{items: make(map[int64]*models.Grade)}
	for i := range grades {
		g := grades[i]
		m.items[g.ID] = &g
		if g.ID > m.nextID {
			m.nextID = g.ID
		}
	}
	return m
}

func (m *mockGradeRepo) List(ctx context.Context) ([]models.Grade, error) {
	out := []models.Grade{}
	for _, g := range m.items {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockGradeRepo) FindByID(ctx context.Context, id int64) (*models.Grade, error) {
	if g, ok := m.items[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeRepo) Create(ctx context.Context, grade *models.Grade) error {
	m.writes++
	m.nextID++
	grade.ID = m.nextID
	cp := *grade
	m.items[grade.ID] = &cp
	return nil
}

func (m *mockGradeRepo) Update(ctx context.Context, grade *models.Grade) error {
	m.writes++
	cp := *grade
	m.items[grade.ID] = &cp
	return nil
}

func (m *mockGradeRepo) Delete(ctx context.Context, id int64) error {
	m.writes++
	delete(m.items, id)
	return nil
}

type stubCacheRepo struct {
	store   map[string][]byte
	getErr  error
	deleted []string
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) DeleteByPrefix(_ context.Context, prefix string) error {
	s.deleted = append(s.deleted, prefix)
	for key := range s.store {
		if strings.HasPrefix(key, prefix) {
			delete(s.store, key)
		}
	}
	return nil
}

func intPtr(v int) *int { return &v }
