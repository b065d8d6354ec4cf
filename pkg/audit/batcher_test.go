package audit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/illmade-knight/go-catalog/pkg/audit"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockInserter records every batch it receives.
type mockInserter struct {
	mu      sync.Mutex
	batches [][]*audit.Record
	err     error
	closed  bool

	// entered and block, when set, let a test hold the worker inside a flush.
	entered chan struct{}
	block   chan struct{}
}

func (m *mockInserter) InsertBatch(ctx context.Context, items []*audit.Record) error {
	if m.block != nil {
		select {
		case m.entered <- struct{}{}:
		default:
		}
		select {
		case <-m.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	batch := make([]*audit.Record, len(items))
	copy(batch, items)
	m.batches = append(m.batches, batch)
	return m.err
}

func (m *mockInserter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockInserter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

func (m *mockInserter) received() [][]*audit.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batches
}

func newTestRecorder(t *testing.T, batchSize int, flushInterval time.Duration) (*audit.BatchRecorder, *mockInserter) {
	t.Helper()
	inserter := &mockInserter{}
	cfg := &audit.BatchRecorderConfig{
		BatchSize:     batchSize,
		FlushInterval: flushInterval,
		InsertTimeout: 2 * time.Second,
	}
	r := audit.NewBatchRecorder(cfg, inserter, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	r.Start(ctx)
	t.Cleanup(func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer stopCancel()
		assert.NoError(t, r.Stop(stopCtx))
	})
	return r, inserter
}

func rec(id string) audit.Record {
	return audit.Record{
		EventID:    "evt-" + id,
		Collection: "universities",
		Operation:  string(audit.OpInsert),
		RecordID:   id,
		Actor:      "admin@example.com",
		At:         time.Now().UTC(),
	}
}

func TestBatchRecorder_BatchSizeTrigger(t *testing.T) {
	r, inserter := newTestRecorder(t, 3, 10*time.Second)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, r.Record(ctx, rec(id)))
	}

	require.Eventually(t, func() bool { return inserter.callCount() == 1 }, time.Second, 10*time.Millisecond)
	batches := inserter.received()
	require.Len(t, batches[0], 3)
	assert.Equal(t, "a", batches[0][0].RecordID)
	assert.Equal(t, "c", batches[0][2].RecordID)
}

func TestBatchRecorder_FlushIntervalTrigger(t *testing.T) {
	flushInterval := 100 * time.Millisecond
	r, inserter := newTestRecorder(t, 10, flushInterval)

	require.NoError(t, r.Record(context.Background(), rec("a")))
	require.NoError(t, r.Record(context.Background(), rec("b")))

	require.Eventually(t, func() bool { return inserter.callCount() == 1 }, flushInterval*5, 10*time.Millisecond)
	assert.Len(t, inserter.received()[0], 2)
}

func TestBatchRecorder_StopFlushesFinalBatch(t *testing.T) {
	inserter := &mockInserter{}
	r := audit.NewBatchRecorder(&audit.BatchRecorderConfig{
		BatchSize:     10,
		FlushInterval: time.Hour,
		InsertTimeout: time.Second,
	}, inserter, zerolog.Nop())
	r.Start(context.Background())

	require.NoError(t, r.Record(context.Background(), rec("a")))

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Stop(stopCtx))

	require.Equal(t, 1, inserter.callCount())
	assert.True(t, inserter.closed)
	assert.ErrorIs(t, r.Record(context.Background(), rec("late")), audit.ErrRecorderStopped)
	assert.NoError(t, r.Stop(stopCtx), "stopping twice is harmless")
}

func TestBatchRecorder_InsertFailureIsNotFatal(t *testing.T) {
	r, inserter := newTestRecorder(t, 1, time.Hour)
	inserter.mu.Lock()
	inserter.err = errors.New("bigquery unavailable")
	inserter.mu.Unlock()

	require.NoError(t, r.Record(context.Background(), rec("a")))
	require.Eventually(t, func() bool { return inserter.callCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, r.Record(context.Background(), rec("b")), "the recorder keeps accepting records after a failed flush")
	require.Eventually(t, func() bool { return inserter.callCount() == 2 }, time.Second, 10*time.Millisecond)
}

func TestNopRecorder(t *testing.T) {
	assert.NoError(t, audit.NopRecorder{}.Record(context.Background(), rec("a")))
}

func TestBatchRecorder_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	inserter := &mockInserter{entered: make(chan struct{}, 1), block: make(chan struct{})}
	r := audit.NewBatchRecorder(&audit.BatchRecorderConfig{
		BatchSize:     1,
		FlushInterval: time.Hour,
		InsertTimeout: 5 * time.Second,
	}, inserter, zerolog.Nop())
	r.Start(context.Background())
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, rec("a")))
	select {
	case <-inserter.entered:
	case <-time.After(time.Second):
		t.Fatal("worker never started flushing")
	}

	// The worker is stuck flushing "a"; a buffer of BatchSize*2 holds two more.
	require.NoError(t, r.Record(ctx, rec("b")))
	require.NoError(t, r.Record(ctx, rec("c")))

	start := time.Now()
	err := r.Record(ctx, rec("d"))
	assert.ErrorIs(t, err, audit.ErrBufferFull)
	assert.Less(t, time.Since(start), time.Second, "Record must not wait for the flush")
	assert.Equal(t, int64(1), r.Dropped())

	close(inserter.block)
	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Stop(stopCtx))

	var ids []string
	for _, batch := range inserter.received() {
		for _, item := range batch {
			ids = append(ids, item.RecordID)
		}
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}
