// Package invalidation carries cache invalidation events between catalog
// processes, so a mutation made through one instance drops the affected keys
// from every other instance's cache.
package invalidation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event names the cache keys a mutation may have changed.
type Event struct {
	ID string `json:"id"`
	// Origin identifies the publishing process. Listeners skip their own events.
	Origin string   `json:"origin"`
	Keys   []string `json:"keys,omitempty"`
	// Clear asks receivers to drop every entry.
	Clear bool      `json:"clear,omitempty"`
	At    time.Time `json:"at"`
}

// NewEvent creates an event invalidating keys.
func NewEvent(origin string, keys ...string) Event {
	return Event{
		ID:     uuid.NewString(),
		Origin: origin,
		Keys:   keys,
		At:     time.Now().UTC(),
	}
}

// NewClearEvent creates an event asking receivers to clear their cache.
func NewClearEvent(origin string) Event {
	e := NewEvent(origin)
	e.Clear = true
	return e
}

// Publisher broadcasts events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Subscriber receives events published by other processes.
type Subscriber interface {
	// Start begins receiving in the background.
	Start(ctx context.Context) error
	// Events is closed once the subscriber has stopped.
	Events() <-chan Event
	Stop() error
}

// NopPublisher discards events. It is used when broadcasting is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
