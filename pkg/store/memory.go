package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryCollection is a thread-safe, in-memory Collection. It is intended for
// local development and tests.
//
// Query fields are resolved against the record's JSON encoding, so records
// used with it must carry json tags matching their firestore tags.
type MemoryCollection[T any] struct {
	name string

	mu    sync.RWMutex
	data  map[string]T
	order []string
}

// NewMemoryCollection creates an empty collection.
func NewMemoryCollection[T any](name string) *MemoryCollection[T] {
	return &MemoryCollection[T]{
		name: name,
		data: make(map[string]T),
	}
}

// List returns matching records, filtered, ordered and paged per q.
func (c *MemoryCollection[T]) List(_ context.Context, q Query) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	type row struct {
		value  T
		fields map[string]any
	}
	rows := make([]row, 0, len(c.order))
	for _, id := range c.order {
		value := c.data[id]
		fields, err := toFields(value)
		if err != nil {
			return nil, fmt.Errorf("%s: decode record %s: %w", c.name, id, err)
		}
		if matches(fields, q.Where) {
			rows = append(rows, row{value: value, fields: fields})
		}
	}

	if q.OrderBy != "" {
		sort.SliceStable(rows, func(i, j int) bool {
			cmp := compareValues(rows[i].fields[q.OrderBy], rows[j].fields[q.OrderBy])
			if q.Desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	if q.Offset > 0 {
		if q.Offset >= len(rows) {
			rows = rows[:0]
		} else {
			rows = rows[q.Offset:]
		}
	}
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = r.value
	}
	return out, nil
}

// Get retrieves a record by id.
func (c *MemoryCollection[T]) Get(_ context.Context, id string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.data[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s/%s: %w", c.name, id, ErrNotFound)
	}
	return value, nil
}

// Insert adds a record.
func (c *MemoryCollection[T]) Insert(_ context.Context, id string, value T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[id]; ok {
		return fmt.Errorf("%s/%s: %w", c.name, id, ErrAlreadyExists)
	}
	c.data[id] = value
	c.order = append(c.order, id)
	return nil
}

// Put replaces an existing record.
func (c *MemoryCollection[T]) Put(_ context.Context, id string, value T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[id]; !ok {
		return fmt.Errorf("%s/%s: %w", c.name, id, ErrNotFound)
	}
	c.data[id] = value
	return nil
}

// Delete removes a record.
func (c *MemoryCollection[T]) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[id]; !ok {
		return nil
	}
	delete(c.data, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Close is a no-op for the in-memory implementation.
func (c *MemoryCollection[T]) Close() error {
	return nil
}

func toFields(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func matches(fields map[string]any, filters []Filter) bool {
	for _, f := range filters {
		got, ok := fields[f.Field]
		if !ok || fmt.Sprint(got) != fmt.Sprint(f.Value) {
			return false
		}
	}
	return true
}

// compareValues orders decoded JSON values: numbers numerically, RFC 3339
// timestamps chronologically, anything else by its string form.
func compareValues(a, b any) int {
	if x, ok := a.(float64); ok {
		if y, ok := b.(float64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	if x, err := time.Parse(time.RFC3339Nano, as); err == nil {
		if y, err := time.Parse(time.RFC3339Nano, bs); err == nil {
			return x.Compare(y)
		}
	}
	return strings.Compare(as, bs)
}
