package service

import (
	"context"
	"database/sql"
	"errors"

	appErrors "github.com/noah-isme/gradebook/pkg/errors"
)

// WriteHooks runs after every committed mutation. Both fields are optional.
type WriteHooks struct {
	Cache   *CacheService
	Metrics *MetricsService
}

func (h WriteHooks) committed(ctx context.Context, entity, action string) {
	h.Metrics.RecordMutation(entity, action)
	h.Cache.InvalidateQueries(ctx)
}

// targetError maps a failed lookup of the entity being changed.
func targetError(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+entity)
}

// referenceError maps a failed lookup of an entity referenced by a foreign key.
func referenceError(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrReferenceNotFound, entity+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+entity)
}
