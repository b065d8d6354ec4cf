// Package catalog implements the educational-resource catalog on top of the
// data store: hierarchy and post reads through the read-through cache, and
// mutations followed by cache invalidation.
//
// Invalidation discipline: every successful mutation drops exactly the cache
// keys whose lists it can change, broadcasts them to other processes and
// records an audit entry. Deleting a node also drops the list of its direct
// children, which is keyed by the deleted id.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/illmade-knight/go-catalog/pkg/attachments"
	"github.com/illmade-knight/go-catalog/pkg/audit"
	"github.com/illmade-knight/go-catalog/pkg/cache"
	"github.com/illmade-knight/go-catalog/pkg/invalidation"
	"github.com/illmade-knight/go-catalog/pkg/store"
	"github.com/rs/zerolog"
)

// Service is the catalog's application layer.
type Service struct {
	stores   Stores
	cache    *cache.ReadThroughCache
	ttl      time.Duration
	origin   string
	events   invalidation.Publisher
	audit    audit.Recorder
	uploader attachments.Uploader
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
	logger   zerolog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithPublisher broadcasts invalidations to other processes. origin identifies
// this process in the published events.
func WithPublisher(origin string, p invalidation.Publisher) ServiceOption {
	return func(s *Service) {
		s.origin = origin
		s.events = p
	}
}

// WithAuditRecorder records every mutation.
func WithAuditRecorder(r audit.Recorder) ServiceOption {
	return func(s *Service) { s.audit = r }
}

// WithUploader stores post attachments.
func WithUploader(u attachments.Uploader) ServiceOption {
	return func(s *Service) { s.uploader = u }
}

// WithTTL overrides the cache's default TTL for catalog reads.
func WithTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) { s.ttl = ttl }
}

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the UUID generator for new record ids.
func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *Service) { s.newID = newID }
}

// NewService builds the catalog service around one shared cache instance.
func NewService(stores Stores, c *cache.ReadThroughCache, logger zerolog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		stores:   stores,
		cache:    c,
		ttl:      c.DefaultTTL(),
		events:   invalidation.NopPublisher{},
		audit:    audit.NopRecorder{},
		uploader: attachments.NopUploader{},
		validate: newValidator(),
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   logger.With().Str("component", "CatalogService").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type actorKey struct{}

// WithActor attaches the acting staff member to ctx. It is stored as the
// author of new posts and in audit records.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor set by WithActor, or "system".
func ActorFrom(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return "system"
}

// cachedList reads a collection list through the cache under key.
func cachedList[T any](ctx context.Context, s *Service, key string, coll store.Collection[T], q store.Query) ([]T, error) {
	items, err := cache.Get(ctx, s.cache, key, s.ttl, func(ctx context.Context) ([]T, error) {
		return coll.List(ctx, q)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return items, nil
}

func insert[T any](ctx context.Context, s *Service, coll store.Collection[T], collection, id string, record T, keys ...string) (T, error) {
	var zero T
	if err := s.check(record); err != nil {
		return zero, err
	}
	if err := coll.Insert(ctx, id, record); err != nil {
		return zero, fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	s.afterMutation(ctx, collection, audit.OpInsert, []string{id}, keys...)
	return record, nil
}

func update[T any](ctx context.Context, s *Service, coll store.Collection[T], collection, id string, record T, keys ...string) (T, error) {
	var zero T
	if err := s.check(record); err != nil {
		return zero, err
	}
	if err := coll.Put(ctx, id, record); err != nil {
		return zero, fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	s.afterMutation(ctx, collection, audit.OpUpdate, []string{id}, keys...)
	return record, nil
}

func remove[T any](ctx context.Context, s *Service, coll store.Collection[T], collection, id string, keys ...string) error {
	if err := coll.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	s.afterMutation(ctx, collection, audit.OpDelete, []string{id}, keys...)
	return nil
}

func load[T any](ctx context.Context, coll store.Collection[T], collection, id string) (T, error) {
	record, err := coll.Get(ctx, id)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to load %s/%s: %w", collection, id, err)
	}
	return record, nil
}

// afterMutation invalidates keys locally, then broadcasts them and audits one
// record per id. Only the local invalidation is required for correctness;
// broadcast and audit failures are logged.
func (s *Service) afterMutation(ctx context.Context, collection string, op audit.Operation, recordIDs []string, keys ...string) {
	s.cache.InvalidateMany(keys...)

	event := invalidation.NewEvent(s.origin, keys...)
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Strs("keys", keys).Msg("Failed to broadcast cache invalidation.")
	}

	actor := ActorFrom(ctx)
	at := s.timestamp()
	for _, id := range recordIDs {
		rec := audit.Record{
			EventID:    event.ID,
			Collection: collection,
			Operation:  string(op),
			RecordID:   id,
			Actor:      actor,
			At:         at,
		}
		if err := s.audit.Record(ctx, rec); err != nil {
			s.logger.Warn().Err(err).Str("collection", collection).Str("record_id", id).Msg("Failed to record audit entry.")
		}
	}

	s.logger.Info().
		Str("collection", collection).
		Str("operation", string(op)).
		Strs("record_ids", recordIDs).
		Strs("invalidated", keys).
		Msg("Catalog mutation applied.")
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}

func trim(v string) string {
	return strings.TrimSpace(v)
}
