// Package store defines the data-store collaborator the catalog reads from and
// writes to, with Firestore and in-memory implementations.
package store

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound is returned when a record id does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned by Insert when the id is taken.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrNotConfigured is returned by mutations when no backend is configured.
	ErrNotConfigured = errors.New("data store is not configured")
)

// Filter is an equality condition on a stored field. Field uses the record's
// firestore tag name.
type Filter struct {
	Field string
	Value any
}

// Query selects records from a collection.
type Query struct {
	Where   []Filter
	OrderBy string
	Desc    bool
	Offset  int
	// Limit of zero means no limit.
	Limit int
}

// Where is a convenience for a query with a single equality filter.
func Where(field string, value any) Query {
	return Query{Where: []Filter{{Field: field, Value: value}}}
}

// Collection is a typed view over one collection of records in the data store.
type Collection[T any] interface {
	// List returns the records matching q.
	List(ctx context.Context, q Query) ([]T, error)
	// Get returns the record with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (T, error)
	// Insert stores a new record under id.
	Insert(ctx context.Context, id string, value T) error
	// Put replaces the record stored under id. It returns ErrNotFound if the
	// record does not exist.
	Put(ctx context.Context, id string, value T) error
	// Delete removes the record. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
	io.Closer
}
