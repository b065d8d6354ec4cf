// Package cache provides a process-local read-through cache for the catalog's
// hierarchical collection reads.
package cache

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is the freshness window used when a caller has no better opinion.
const DefaultTTL = 5 * time.Minute

// ErrTypeMismatch is returned by Get when the value stored under a key is not
// of the type the caller asked for.
var ErrTypeMismatch = errors.New("cached value has unexpected type")

// Producer loads the value for a key from the underlying data store.
// The cache makes no assumption about side effects or idempotency.
type Producer[T any] func(ctx context.Context) (T, error)

// Invalidator is the write-side contract of the cache. Application code holds
// one of these after mutations so it can drop the keys it may have changed.
type Invalidator interface {
	// Invalidate removes a single key. Unknown keys are ignored.
	Invalidate(key string)
	// InvalidateMany removes each of the keys.
	InvalidateMany(keys ...string)
	// Clear empties the cache.
	Clear()
}
