package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook/internal/models"
	appErrors "github.com/noah-isme/gradebook/pkg/errors"
)

func newTeacherFixture() (*TeacherService, *mockTeacherRepo, *mockSubjectRepo) {
	subjects := newMockSubjectRepo(models.Subject{ID: 1, Name: "Math"}, models.Subject{ID: 2, Name: "Science"})
	teachers := newMockTeacherRepo(subjects, models.Teacher{ID: 1, Name: "Teacher 1"})
	return NewTeacherService(teachers, subjects, nil, nil, WriteHooks{}), teachers, subjects
}

func TestTeacherServiceCRUD(t *testing.T) {
	svc, repo, _ := newTeacherFixture()
	ctx := context.Background()

	created, err := svc.Create(ctx, TeacherRequest{Name: "Teacher 2"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), created.ID)

	_, err = svc.Create(ctx, TeacherRequest{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	updated, err := svc.Update(ctx, 2, TeacherRequest{Name: "Teacher Two"})
	require.NoError(t, err)
	assert.Equal(t, "Teacher Two", updated.Name)

	_, err = svc.Get(ctx, 42)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	require.NoError(t, svc.Delete(ctx, 2))
	teachers, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, teachers, 1)
	assert.Len(t, repo.items, 1)
}

func TestTeacherServiceAssignSubject(t *testing.T) {
	svc, repo, _ := newTeacherFixture()
	ctx := context.Background()

	require.NoError(t, svc.AssignSubject(ctx, 1, 1))
	require.NoError(t, svc.AssignSubject(ctx, 1, 1))
	assert.Len(t, repo.links, 1)

	err := svc.AssignSubject(ctx, 1, 9)
	assert.True(t, errors.Is(err, appErrors.ErrReferenceNotFound))
	assert.Equal(t, "subject not found", appErrors.FromError(err).Message)

	err = svc.AssignSubject(ctx, 9, 1)
	assert.True(t, errors.Is(err, appErrors.ErrReferenceNotFound))
	assert.Len(t, repo.links, 1)

	subjects, err := svc.ListSubjects(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []models.Subject{{ID: 1, Name: "Math"}}, subjects)
}

func TestTeacherServiceUnassignAndDeleteKeepSubjects(t *testing.T) {
	svc, repo, subjects := newTeacherFixture()
	ctx := context.Background()
	require.NoError(t, svc.AssignSubject(ctx, 1, 1))
	require.NoError(t, svc.AssignSubject(ctx, 1, 2))

	require.NoError(t, svc.UnassignSubject(ctx, 1, 2))
	err := svc.UnassignSubject(ctx, 1, 2)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	require.NoError(t, svc.Delete(ctx, 1))
	assert.Empty(t, repo.links)
	assert.Len(t, subjects.items, 2)
}

func TestSubjectServiceLifecycle(t *testing.T) {
	subjects := newMockSubjectRepo()
	svc := NewSubjectService(subjects, nil, nil, WriteHooks{})
	ctx := context.Background()

	subject, err := svc.Create(ctx, SubjectRequest{Name: "History"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, subject.ID+1, SubjectRequest{Name: "Art"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	renamed, err := svc.Update(ctx, subject.ID, SubjectRequest{Name: "World History"})
	require.NoError(t, err)
	assert.Equal(t, "World History", renamed.Name)

	require.NoError(t, svc.Delete(ctx, subject.ID))
	assert.True(t, errors.Is(svc.Delete(ctx, subject.ID), appErrors.ErrNotFound))
}

func TestSubjectServiceListFailure(t *testing.T) {
	subjects := newMockSubjectRepo()
	subjects.err = errStorage
	svc := NewSubjectService(subjects, nil, nil, WriteHooks{})

	_, err := svc.List(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
	assert.True(t, errors.Is(err, errStorage))
}
