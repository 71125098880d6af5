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

func TestGroupServiceCreateTrimsAndInvalidatesCache(t *testing.T) {
	repo := newMockGroupRepo()
	cacheRepo := &stubCacheRepo{}
	metrics := NewMetricsService()
	cache := NewCacheService(cacheRepo, metrics, 0, nil, true)
	svc := NewGroupService(repo, nil, nil, WriteHooks{Cache: cache, Metrics: metrics})

	group, err := svc.Create(context.Background(), GroupRequest{Name: "  Group 1 "})
	require.NoError(t, err)
	assert.Equal(t, int64(1), group.ID)
	assert.Equal(t, "Group 1", group.Name)
	assert.Equal(t, []string{QueryCachePrefix}, cacheRepo.deleted)
	assert.Equal(t, uint64(1), metrics.Snapshot().Mutations["group.create"])
}

func TestGroupServiceCreateValidation(t *testing.T) {
	repo := newMockGroupRepo()
	svc := NewGroupService(repo, nil, nil, WriteHooks{})

	_, err := svc.Create(context.Background(), GroupRequest{Name: "   "})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.items)
}

func TestGroupServiceCreateStorageFailure(t *testing.T) {
	repo := newMockGroupRepo()
	repo.createErr = errStorage
	svc := NewGroupService(repo, nil, nil, WriteHooks{})

	_, err := svc.Create(context.Background(), GroupRequest{Name: "Group 1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.True(t, errors.Is(err, errStorage))
}

func TestGroupServiceUpdateAndDeleteMissing(t *testing.T) {
	repo := newMockGroupRepo(models.Group{ID: 1, Name: "Group 1"})
	svc := NewGroupService(repo, nil, nil, WriteHooks{})
	ctx := context.Background()

	_, err := svc.Update(ctx, 7, GroupRequest{Name: "Renamed"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Equal(t, "Group 1", repo.items[1].Name)

	err = svc.Delete(ctx, 7)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Empty(t, repo.deleted)

	updated, err := svc.Update(ctx, 1, GroupRequest{Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	require.NoError(t, svc.Delete(ctx, 1))
	assert.Equal(t, []int64{1}, repo.deleted)

	groups, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}
