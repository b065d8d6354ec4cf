//go:build integration

package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/illmade-knight/go-catalog/pkg/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a running emulator, e.g.
// gcloud emulators firestore start --host-port=localhost:8086
func TestFirestoreCollection_Integration(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	const projectID = "test-project"
	client, err := firestore.NewClient(ctx, projectID)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	cfg := &store.FirestoreConfig{
		ProjectID:      projectID,
		CollectionName: "records-" + uuid.NewString()[:8],
	}
	c, err := store.NewFirestoreCollection[testRecord](cfg, client, zerolog.Nop())
	require.NoError(t, err)

	for _, r := range []testRecord{
		{ID: "1", ParentID: "p1", Name: "Charlie", Published: true},
		{ID: "2", ParentID: "p1", Name: "Alpha"},
		{ID: "3", ParentID: "p2", Name: "Bravo", Published: true},
	} {
		require.NoError(t, c.Insert(ctx, r.ID, r))
	}

	t.Run("Insert duplicate", func(t *testing.T) {
		assert.ErrorIs(t, c.Insert(ctx, "1", testRecord{ID: "1"}), store.ErrAlreadyExists)
	})

	t.Run("List scoped and ordered", func(t *testing.T) {
		got, err := c.List(ctx, store.Query{
			Where:   []store.Filter{{Field: "parent_id", Value: "p1"}},
			OrderBy: "name",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Alpha", "Charlie"}, names(got))
	})

	t.Run("Get and Put", func(t *testing.T) {
		require.NoError(t, c.Put(ctx, "2", testRecord{ID: "2", ParentID: "p1", Name: "Alpha 2"}))
		got, err := c.Get(ctx, "2")
		require.NoError(t, err)
		assert.Equal(t, "Alpha 2", got.Name)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := c.Get(ctx, "nope")
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.ErrorIs(t, c.Put(ctx, "nope", testRecord{}), store.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, c.Delete(ctx, "3"))
		_, err := c.Get(ctx, "3")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}
