package cache

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Loader describes one key to warm up. A zero TTL means the cache default.
type Loader struct {
	Key  string
	TTL  time.Duration
	Load Producer[any]
}

// Preload fetches every loader concurrently through the cache. A failing
// loader is logged and does not stop the others. It returns how many keys
// were loaded.
func (c *ReadThroughCache) Preload(ctx context.Context, loaders ...Loader) int {
	c.logger.Info().Int("entries", len(loaders)).Msg("Preloading cache...")

	var loaded atomic.Int32
	var g errgroup.Group
	for _, l := range loaders {
		g.Go(func() error {
			ttl := l.TTL
			if ttl == 0 {
				ttl = c.defaultTTL
			}
			if _, err := c.Fetch(ctx, l.Key, ttl, l.Load); err != nil {
				c.logger.Error().Err(err).Str("key", l.Key).Msg("Failed to preload cache entry.")
				return nil
			}
			loaded.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	n := int(loaded.Load())
	c.logger.Info().Int("loaded", n).Int("failed", len(loaders)-n).Msg("Cache preload complete.")
	return n
}
