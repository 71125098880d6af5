package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/gradebook/pkg/errors"
)

// QueryCachePrefix namespaces every cached analytical query result.
const QueryCachePrefix = "queries"

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// CacheService orchestrates cache operations and related metrics.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
	generation atomic.Uint64
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	s.metrics.RecordCacheOperation(true, duration)
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate removes cached values whose key starts with prefix.
func (s *CacheService) Invalidate(ctx context.Context, prefix string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPrefix(ctx, prefix); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("prefix", prefix), zap.Error(err))
		return err
	}
	return nil
}

// Generation changes every time query results are invalidated.
func (s *CacheService) Generation() uint64 {
	if s == nil {
		return 0
	}
	return s.generation.Load()
}

// InvalidateQueries drops every cached query result. Failures are logged and otherwise ignored.
func (s *CacheService) InvalidateQueries(ctx context.Context) {
	if s == nil {
		return
	}
	s.generation.Add(1)
	_ = s.Invalidate(ctx, QueryCachePrefix)
}

type cacheTraceKey struct{}

type cacheTrace struct {
	hit    bool
	looked bool
}

// WithCacheTrace returns a context that remembers whether a cached query under it was a hit.
func WithCacheTrace(ctx context.Context) context.Context {
	return context.WithValue(ctx, cacheTraceKey{}, &cacheTrace{})
}

// CacheHit reports the outcome recorded on a WithCacheTrace context. ok is false when no cache
// lookup happened.
func CacheHit(ctx context.Context) (hit, ok bool) {
	trace, found := ctx.Value(cacheTraceKey{}).(*cacheTrace)
	if !found || !trace.looked {
		return false, false
	}
	return trace.hit, true
}

func recordCacheHit(ctx context.Context, hit bool) {
	if trace, ok := ctx.Value(cacheTraceKey{}).(*cacheTrace); ok {
		trace.hit = hit
		trace.looked = true
	}
}
