package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreConfig holds configuration for a Firestore-backed collection.
type FirestoreConfig struct {
	ProjectID      string
	CollectionName string
}

// FirestoreCollection is a Collection stored in a Firestore collection, one
// document per record with the record id as document id.
type FirestoreCollection[T any] struct {
	client         *firestore.Client
	collectionName string
	logger         zerolog.Logger
}

// NewFirestoreCollection creates a collection over an existing client.
func NewFirestoreCollection[T any](
	cfg *FirestoreConfig,
	client *firestore.Client,
	logger zerolog.Logger,
) (*FirestoreCollection[T], error) {
	if client == nil {
		return nil, fmt.Errorf("firestore client cannot be nil")
	}
	if cfg.CollectionName == "" {
		return nil, fmt.Errorf("firestore collection name is required")
	}

	logger.Info().Str("project_id", cfg.ProjectID).Str("collection", cfg.CollectionName).Msg("FirestoreCollection initialized.")

	return &FirestoreCollection[T]{
		client:         client,
		collectionName: cfg.CollectionName,
		logger:         logger.With().Str("component", "FirestoreCollection").Str("collection", cfg.CollectionName).Logger(),
	}, nil
}

// List runs q against the collection.
func (s *FirestoreCollection[T]) List(ctx context.Context, q Query) ([]T, error) {
	query := s.client.Collection(s.collectionName).Query
	for _, f := range q.Where {
		query = query.Where(f.Field, "==", f.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Desc {
			dir = firestore.Desc
		}
		query = query.OrderBy(q.OrderBy, dir)
	}
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []T
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to list documents from Firestore.")
			return nil, fmt.Errorf("firestore list %s: %w", s.collectionName, err)
		}
		var value T
		if err := doc.DataTo(&value); err != nil {
			s.logger.Error().Err(err).Str("doc_id", doc.Ref.ID).Msg("Failed to map Firestore document data.")
			return nil, fmt.Errorf("firestore DataTo for %s: %w", doc.Ref.ID, err)
		}
		out = append(out, value)
	}

	s.logger.Debug().Int("count", len(out)).Msg("Listed documents from Firestore.")
	return out, nil
}

// Get retrieves a single document by id.
func (s *FirestoreCollection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	docSnap, err := s.client.Collection(s.collectionName).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			s.logger.Warn().Str("id", id).Msg("Document not found in Firestore.")
			return zero, fmt.Errorf("%s/%s: %w", s.collectionName, id, ErrNotFound)
		}
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to get document from Firestore.")
		return zero, fmt.Errorf("firestore get for %s: %w", id, err)
	}

	var value T
	if err := docSnap.DataTo(&value); err != nil {
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to map Firestore document data.")
		return zero, fmt.Errorf("firestore DataTo for %s: %w", id, err)
	}
	return value, nil
}

// Insert creates the document, failing if it already exists.
func (s *FirestoreCollection[T]) Insert(ctx context.Context, id string, value T) error {
	_, err := s.client.Collection(s.collectionName).Doc(id).Create(ctx, value)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("%s/%s: %w", s.collectionName, id, ErrAlreadyExists)
		}
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to create document in Firestore.")
		return fmt.Errorf("firestore create for %s: %w", id, err)
	}
	s.logger.Debug().Str("id", id).Msg("Created document in Firestore.")
	return nil
}

// Put overwrites an existing document.
func (s *FirestoreCollection[T]) Put(ctx context.Context, id string, value T) error {
	ref := s.client.Collection(s.collectionName).Doc(id)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); err != nil {
			return err
		}
		return tx.Set(ref, value)
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%s/%s: %w", s.collectionName, id, ErrNotFound)
		}
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to update document in Firestore.")
		return fmt.Errorf("firestore set for %s: %w", id, err)
	}
	s.logger.Debug().Str("id", id).Msg("Updated document in Firestore.")
	return nil
}

// Delete removes the document.
func (s *FirestoreCollection[T]) Delete(ctx context.Context, id string) error {
	if _, err := s.client.Collection(s.collectionName).Doc(id).Delete(ctx); err != nil {
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to delete document from Firestore.")
		return fmt.Errorf("firestore delete for %s: %w", id, err)
	}
	s.logger.Debug().Str("id", id).Msg("Deleted document from Firestore.")
	return nil
}

// Close is a no-op as the Firestore client's lifecycle is managed externally.
func (s *FirestoreCollection[T]) Close() error {
	return nil
}
