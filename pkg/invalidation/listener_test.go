package invalidation_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/illmade-knight/go-catalog/pkg/cache"
	"github.com/illmade-knight/go-catalog/pkg/invalidation"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chanSubscriber is an in-memory Subscriber fed by the test.
type chanSubscriber struct {
	events   chan invalidation.Event
	stopOnce sync.Once
}

func newChanSubscriber() *chanSubscriber {
	return &chanSubscriber{events: make(chan invalidation.Event, 10)}
}

func (s *chanSubscriber) Start(context.Context) error       { return nil }
func (s *chanSubscriber) Events() <-chan invalidation.Event { return s.events }
func (s *chanSubscriber) send(e invalidation.Event)         { s.events <- e }

func (s *chanSubscriber) Stop() error {
	s.stopOnce.Do(func() { close(s.events) })
	return nil
}

func warm(t *testing.T, c *cache.ReadThroughCache, keys ...string) {
	t.Helper()
	for _, key := range keys {
		_, err := cache.Get(context.Background(), c, key, time.Hour, func(ctx context.Context) (string, error) {
			return key, nil
		})
		require.NoError(t, err)
	}
}

func cached(c *cache.ReadThroughCache, key string) bool {
	var called atomic.Bool
	_, _ = cache.Get(context.Background(), c, key, time.Hour, func(ctx context.Context) (string, error) {
		called.Store(true)
		return key, nil
	})
	return !called.Load()
}

func TestListener_AppliesRemoteEvents(t *testing.T) {
	c := cache.NewReadThroughCache(zerolog.Nop())
	warm(t, c, "universities", "faculties-U1", "schoolLevels")

	sub := newChanSubscriber()
	l := invalidation.NewListener("instance-a", sub, c, zerolog.Nop())
	require.NoError(t, l.Start(context.Background()))

	sub.send(invalidation.NewEvent("instance-b", "universities", "faculties-U1"))
	require.NoError(t, l.Stop())

	assert.Equal(t, 1, c.Len())
	assert.True(t, cached(c, "schoolLevels"))
}

func TestListener_Apply(t *testing.T) {
	t.Run("own events are ignored", func(t *testing.T) {
		c := cache.NewReadThroughCache(zerolog.Nop())
		warm(t, c, "universities")
		l := invalidation.NewListener("me", newChanSubscriber(), c, zerolog.Nop())

		applied := l.Apply(invalidation.NewEvent("me", "universities"))

		assert.False(t, applied)
		assert.True(t, cached(c, "universities"))
	})

	t.Run("clear event empties the cache", func(t *testing.T) {
		c := cache.NewReadThroughCache(zerolog.Nop())
		warm(t, c, "a", "b")
		l := invalidation.NewListener("me", newChanSubscriber(), c, zerolog.Nop())

		applied := l.Apply(invalidation.NewClearEvent("other"))

		assert.True(t, applied)
		assert.Equal(t, 0, c.Len())
	})
}

func TestNewEvent(t *testing.T) {
	e := invalidation.NewEvent("origin", "k1", "k2")
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "origin", e.Origin)
	assert.Equal(t, []string{"k1", "k2"}, e.Keys)
	assert.False(t, e.Clear)
	assert.WithinDuration(t, time.Now(), e.At, time.Minute)

	assert.NotEqual(t, e.ID, invalidation.NewEvent("origin").ID)
}
