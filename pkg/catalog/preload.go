package catalog

import (
	"context"

	"github.com/illmade-knight/go-catalog/pkg/cache"
	"github.com/illmade-knight/go-catalog/pkg/store"
)

// Preload warms the root lists of both hierarchies and reports how many were
// loaded. Loaders read the stores directly; going through the cached reads
// would nest a fetch of the same key.
func (s *Service) Preload(ctx context.Context) int {
	return s.cache.Preload(ctx,
		cache.Loader{
			Key: KeyUniversities,
			TTL: s.ttl,
			Load: func(ctx context.Context) (any, error) {
				return s.stores.Universities.List(ctx, universitiesQuery)
			},
		},
		cache.Loader{
			Key: KeySchoolLevels,
			TTL: s.ttl,
			Load: func(ctx context.Context) (any, error) {
				return s.stores.SchoolLevels.List(ctx, store.Query{})
			},
		},
	)
}
