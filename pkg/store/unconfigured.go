package store

import (
	"context"
	"fmt"
)

// Unconfigured stands in for a backend that has not been set up. Reads return
// empty results so screens still render; mutations fail with ErrNotConfigured.
type Unconfigured[T any] struct {
	Name string
}

func (u Unconfigured[T]) List(context.Context, Query) ([]T, error) {
	return nil, nil
}

func (u Unconfigured[T]) Get(_ context.Context, id string) (T, error) {
	var zero T
	return zero, fmt.Errorf("%s/%s: %w", u.Name, id, ErrNotFound)
}

func (u Unconfigured[T]) Insert(context.Context, string, T) error {
	return fmt.Errorf("insert into %s: %w", u.Name, ErrNotConfigured)
}

func (u Unconfigured[T]) Put(context.Context, string, T) error {
	return fmt.Errorf("update %s: %w", u.Name, ErrNotConfigured)
}

func (u Unconfigured[T]) Delete(context.Context, string) error {
	return fmt.Errorf("delete from %s: %w", u.Name, ErrNotConfigured)
}

func (u Unconfigured[T]) Close() error {
	return nil
}
