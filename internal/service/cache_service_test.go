package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheServiceDisabled(t *testing.T) {
	repo := &stubCacheRepo{}
	svc := NewCacheService(repo, nil, 0, nil, false)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "queries:a", 1, 0))
	var out int
	hit, err := svc.Get(ctx, "queries:a", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, repo.store)

	svc.InvalidateQueries(ctx)
	assert.Empty(t, repo.deleted)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	nilSvc.InvalidateQueries(ctx)
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := &stubCacheRepo{}
	svc := NewCacheService(repo, NewMetricsService(), 0, nil, true)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "queries:a", []string{"Math"}, 0))
	require.NoError(t, svc.Set(ctx, "other:b", 2, 0))

	var out []string
	hit, err := svc.Get(ctx, "queries:a", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"Math"}, out)

	svc.InvalidateQueries(ctx)
	assert.NotContains(t, repo.store, "queries:a")
	assert.Contains(t, repo.store, "other:b")
}
