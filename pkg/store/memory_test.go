package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/illmade-knight/go-catalog/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	ID        string `json:"id" firestore:"id"`
	ParentID  string `json:"parent_id" firestore:"parent_id"`
	Name      string `json:"name" firestore:"name"`
	Published bool   `json:"published" firestore:"published"`
}

func seeded(t *testing.T) *store.MemoryCollection[testRecord] {
	t.Helper()
	ctx := context.Background()
	c := store.NewMemoryCollection[testRecord]("records")
	for _, r := range []testRecord{
		{ID: "1", ParentID: "p1", Name: "Charlie", Published: true},
		{ID: "2", ParentID: "p1", Name: "Alpha"},
		{ID: "3", ParentID: "p2", Name: "Bravo", Published: true},
		{ID: "4", ParentID: "p1", Name: "Delta", Published: true},
	} {
		require.NoError(t, c.Insert(ctx, r.ID, r))
	}
	return c
}

func names(records []testRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

func TestMemoryCollection_List(t *testing.T) {
	ctx := context.Background()
	c := seeded(t)

	testCases := []struct {
		name  string
		query store.Query
		want  []string
	}{
		{name: "all in insertion order", query: store.Query{}, want: []string{"Charlie", "Alpha", "Bravo", "Delta"}},
		{name: "scoped to parent", query: store.Where("parent_id", "p1"), want: []string{"Charlie", "Alpha", "Delta"}},
		{name: "bool filter", query: store.Where("published", true), want: []string{"Charlie", "Bravo", "Delta"}},
		{
			name: "two filters",
			query: store.Query{Where: []store.Filter{
				{Field: "parent_id", Value: "p1"},
				{Field: "published", Value: true},
			}},
			want: []string{"Charlie", "Delta"},
		},
		{name: "ordered", query: store.Query{OrderBy: "name"}, want: []string{"Alpha", "Bravo", "Charlie", "Delta"}},
		{name: "ordered desc", query: store.Query{OrderBy: "name", Desc: true}, want: []string{"Delta", "Charlie", "Bravo", "Alpha"}},
		{name: "paged", query: store.Query{OrderBy: "name", Offset: 1, Limit: 2}, want: []string{"Bravo", "Charlie"}},
		{name: "offset past end", query: store.Query{Offset: 10}, want: []string{}},
		{name: "unknown field", query: store.Where("missing", "x"), want: []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.List(ctx, tc.query)
			require.NoError(t, err)
			assert.Equal(t, tc.want, names(got))
		})
	}
}

func TestMemoryCollection_ListOrdersTimesAndNumbers(t *testing.T) {
	type timedRecord struct {
		Name string    `json:"name"`
		Rank int       `json:"rank"`
		At   time.Time `json:"at"`
	}
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := store.NewMemoryCollection[timedRecord]("timed")
	require.NoError(t, c.Insert(ctx, "a", timedRecord{Name: "a", Rank: 10, At: base.Add(500 * time.Millisecond)}))
	require.NoError(t, c.Insert(ctx, "b", timedRecord{Name: "b", Rank: 9, At: base.Add(500010 * time.Microsecond)}))
	require.NoError(t, c.Insert(ctx, "c", timedRecord{Name: "c", Rank: 100, At: base}))

	byTime, err := c.List(ctx, store.Query{OrderBy: "at", Desc: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, []string{byTime[0].Name, byTime[1].Name, byTime[2].Name})

	byRank, err := c.List(ctx, store.Query{OrderBy: "rank"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, []string{byRank[0].Name, byRank[1].Name, byRank[2].Name})
}

func TestMemoryCollection_CRUD(t *testing.T) {
	ctx := context.Background()
	c := seeded(t)

	t.Run("Get existing", func(t *testing.T) {
		got, err := c.Get(ctx, "2")
		require.NoError(t, err)
		assert.Equal(t, "Alpha", got.Name)
	})

	t.Run("Get missing", func(t *testing.T) {
		_, err := c.Get(ctx, "nope")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("Insert duplicate", func(t *testing.T) {
		err := c.Insert(ctx, "1", testRecord{ID: "1"})
		assert.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("Put replaces", func(t *testing.T) {
		require.NoError(t, c.Put(ctx, "2", testRecord{ID: "2", ParentID: "p1", Name: "Alpha 2"}))
		got, err := c.Get(ctx, "2")
		require.NoError(t, err)
		assert.Equal(t, "Alpha 2", got.Name)
	})

	t.Run("Put missing", func(t *testing.T) {
		assert.ErrorIs(t, c.Put(ctx, "nope", testRecord{}), store.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, c.Delete(ctx, "1"))
		require.NoError(t, c.Delete(ctx, "1"), "deleting twice is not an error")
		all, err := c.List(ctx, store.Query{})
		require.NoError(t, err)
		assert.Equal(t, []string{"Alpha 2", "Bravo", "Delta"}, names(all))
	})
}

func TestUnconfigured(t *testing.T) {
	ctx := context.Background()
	u := store.Unconfigured[testRecord]{Name: "records"}

	list, err := u.List(ctx, store.Query{})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = u.Get(ctx, "1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, u.Insert(ctx, "1", testRecord{}), store.ErrNotConfigured)
	assert.ErrorIs(t, u.Put(ctx, "1", testRecord{}), store.ErrNotConfigured)
	assert.ErrorIs(t, u.Delete(ctx, "1"), store.ErrNotConfigured)
}
