package invalidation

import (
	"context"
	"fmt"
	"sync"

	"github.com/illmade-knight/go-catalog/pkg/cache"
	"github.com/rs/zerolog"
)

// Listener applies events from a Subscriber to a local cache.
type Listener struct {
	origin string
	sub    Subscriber
	target cache.Invalidator
	logger zerolog.Logger
	wg     sync.WaitGroup
}

// NewListener creates a listener. Events whose Origin equals origin are ignored,
// as the local cache was already invalidated when they were published.
func NewListener(origin string, sub Subscriber, target cache.Invalidator, logger zerolog.Logger) *Listener {
	return &Listener{
		origin: origin,
		sub:    sub,
		target: target,
		logger: logger.With().Str("component", "InvalidationListener").Logger(),
	}
}

// Start starts the subscriber and applies its events until it stops.
func (l *Listener) Start(ctx context.Context) error {
	if err := l.sub.Start(ctx); err != nil {
		return fmt.Errorf("failed to start invalidation subscriber: %w", err)
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		for event := range l.sub.Events() {
			l.Apply(event)
		}
		l.logger.Info().Msg("Invalidation event stream closed.")
	}()
	return nil
}

// Apply invalidates the event's keys, or clears the cache for a clear event.
// It reports whether the event was applied.
func (l *Listener) Apply(event Event) bool {
	if event.Origin == l.origin {
		return false
	}
	if event.Clear {
		l.target.Clear()
	} else {
		l.target.InvalidateMany(event.Keys...)
	}
	l.logger.Debug().
		Str("event_id", event.ID).
		Str("origin", event.Origin).
		Strs("keys", event.Keys).
		Bool("clear", event.Clear).
		Msg("Applied invalidation event.")
	return true
}

// Stop stops the subscriber and waits for pending events to be applied.
func (l *Listener) Stop() error {
	err := l.sub.Stop()
	l.wg.Wait()
	return err
}
