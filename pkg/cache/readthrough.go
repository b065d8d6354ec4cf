package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// entry is a single memoized producer result.
type entry struct {
	value    any
	storedAt time.Time
}

// ReadThroughCache memoizes producer results under string keys. A fresh entry
// is served without calling the producer; a stale entry is served only when a
// refresh attempt fails. It is safe for concurrent use.
//
// Keys follow the "<collection>" / "<collection>-<parentID>" convention so
// lists scoped to different parents never collide.
type ReadThroughCache struct {
	mu      sync.RWMutex
	entries map[string]entry

	defaultTTL time.Duration
	now        func() time.Time
	coalesce   bool
	group      singleflight.Group
	logger     zerolog.Logger

	hits        atomic.Int64
	misses      atomic.Int64
	staleServed atomic.Int64
}

// Option configures a ReadThroughCache.
type Option func(*ReadThroughCache)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *ReadThroughCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithDefaultTTL sets the TTL used by GetDefault and by preload entries
// that do not specify one. Zero disables memoization; negative values are
// ignored.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *ReadThroughCache) {
		if ttl >= 0 {
			c.defaultTTL = ttl
		}
	}
}

// WithCoalescing makes concurrent misses on the same key share a single
// in-flight producer call instead of each calling the producer.
func WithCoalescing() Option {
	return func(c *ReadThroughCache) {
		c.coalesce = true
	}
}

// NewReadThroughCache creates an empty cache. The application is expected to
// build exactly one and hand it to whatever loads hierarchical data.
func NewReadThroughCache(logger zerolog.Logger, opts ...Option) *ReadThroughCache {
	c := &ReadThroughCache{
		entries:    make(map[string]entry),
		defaultTTL: DefaultTTL,
		now:        time.Now,
		logger:     logger.With().Str("component", "ReadThroughCache").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultTTL returns the TTL configured for this cache.
func (c *ReadThroughCache) DefaultTTL() time.Duration {
	return c.defaultTTL
}

// Fetch is the untyped read-through operation. It returns the entry for key if
// it was stored less than ttl ago, otherwise it calls producer and stores the
// result. When producer fails and any earlier entry exists, that entry is
// returned instead of the error. A ttl of zero or less forces a refetch.
func (c *ReadThroughCache) Fetch(ctx context.Context, key string, ttl time.Duration, producer Producer[any]) (any, error) {
	if ttl < 0 {
		ttl = 0
	}

	c.mu.RLock()
	cached, found := c.entries[key]
	c.mu.RUnlock()

	if found {
		age := c.now().Sub(cached.storedAt)
		if age < ttl {
			c.hits.Add(1)
			c.logger.Debug().Str("key", key).Dur("age", age).Msg("Cache hit.")
			return cached.value, nil
		}
	}

	c.misses.Add(1)
	c.logger.Debug().Str("key", key).Bool("stale", found).Msg("Cache miss, fetching fresh data.")

	value, err := c.produce(ctx, key, producer)
	if err != nil {
		if found {
			c.staleServed.Add(1)
			c.logger.Warn().Err(err).Str("key", key).
				Dur("age", c.now().Sub(cached.storedAt)).
				Msg("Fetch failed, serving stale cache entry.")
			return cached.value, nil
		}
		c.logger.Error().Err(err).Str("key", key).Msg("Fetch failed and no cached entry is available.")
		return nil, err
	}
	return value, nil
}

// produce calls the producer and stores a successful result. With coalescing
// enabled, concurrent callers for the same key share one call. The shared call
// runs detached from the first caller's cancellation; each caller stops
// waiting when its own ctx is done.
func (c *ReadThroughCache) produce(ctx context.Context, key string, producer Producer[any]) (any, error) {
	load := func(ctx context.Context) (any, error) {
		value, err := producer(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = entry{value: value, storedAt: c.now()}
		c.mu.Unlock()
		return value, nil
	}

	if !c.coalesce {
		return load(ctx)
	}
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return load(detached)
	})
	select {
	case res := <-ch:
		if res.Shared {
			c.logger.Debug().Str("key", key).Msg("Joined in-flight fetch.")
		}
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate removes the entry for key. The next read of key always calls its
// producer.
func (c *ReadThroughCache) Invalidate(key string) {
	c.mu.Lock()
	_, found := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()

	// A fetch that started before the invalidation must not be handed to
	// callers that arrive after it.
	if c.coalesce {
		c.group.Forget(key)
	}
	if found {
		c.logger.Debug().Str("key", key).Msg("Cache entry invalidated.")
	}
}

// InvalidateMany removes every key in keys.
func (c *ReadThroughCache) InvalidateMany(keys ...string) {
	for _, key := range keys {
		c.Invalidate(key)
	}
}

// Clear drops every entry.
func (c *ReadThroughCache) Clear() {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	c.entries = make(map[string]entry)
	c.mu.Unlock()

	if c.coalesce {
		for _, key := range keys {
			c.group.Forget(key)
		}
	}
	c.logger.Info().Int("entries", len(keys)).Msg("Cache cleared.")
}

// Len returns the number of stored entries, fresh or stale.
func (c *ReadThroughCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Get is the typed form of Fetch.
func Get[T any](ctx context.Context, c *ReadThroughCache, key string, ttl time.Duration, producer Producer[T]) (T, error) {
	var zero T
	value, err := c.Fetch(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return producer(ctx)
	})
	if err != nil {
		return zero, err
	}
	if value == nil {
		return zero, nil
	}
	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("%w: key %q holds %T, want %T", ErrTypeMismatch, key, value, zero)
	}
	return typed, nil
}

// GetDefault is Get with the cache's default TTL.
func GetDefault[T any](ctx context.Context, c *ReadThroughCache, key string, producer Producer[T]) (T, error) {
	return Get(ctx, c, key, c.defaultTTL, producer)
}
