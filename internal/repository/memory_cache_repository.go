package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	appErrors "github.com/noah-isme/gradebook/pkg/errors"
)

// MemoryCacheRepository keeps JSON encoded query results in a bounded in-process LRU.
// Entries share a single TTL; the per-call ttl passed to Set is ignored.
type MemoryCacheRepository struct {
	entries *expirable.LRU[string, []byte]
}

// NewMemoryCacheRepository constructs an LRU cache holding at most size entries for ttl.
func NewMemoryCacheRepository(size int, ttl time.Duration) *MemoryCacheRepository {
	if size <= 0 {
		size = 256
	}
	return &MemoryCacheRepository{entries: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get retrieves and unmarshals the cached value into dest.
func (r *MemoryCacheRepository) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := r.entries.Get(key)
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set marshals value and stores it.
func (r *MemoryCacheRepository) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	r.entries.Add(key, payload)
	return nil
}

// DeleteByPrefix removes every cached entry whose key starts with prefix.
func (r *MemoryCacheRepository) DeleteByPrefix(_ context.Context, prefix string) error {
	for _, key := range r.entries.Keys() {
		if strings.HasPrefix(key, prefix) {
			r.entries.Remove(key)
		}
	}
	return nil
}

// Len reports the number of live entries.
func (r *MemoryCacheRepository) Len() int {
	return r.entries.Len()
}
