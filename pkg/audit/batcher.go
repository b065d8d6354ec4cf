package audit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrRecorderStopped is returned by Record after Stop has been called.
	ErrRecorderStopped = errors.New("audit recorder is stopped")
	// ErrBufferFull is returned by Record when the record was dropped because
	// the worker is still flushing earlier batches.
	ErrBufferFull = errors.New("audit buffer is full")
)

// BatchInserter writes a batch of records to a destination such as BigQuery.
type BatchInserter interface {
	InsertBatch(ctx context.Context, items []*Record) error
	Close() error
}

// BatchRecorderConfig holds configuration for the BatchRecorder.
type BatchRecorderConfig struct {
	BatchSize     int
	FlushInterval time.Duration // How often to flush a partial batch.
	InsertTimeout time.Duration // The timeout for a single flush operation.
}

// BatchRecorder buffers audit records and flushes them to a BatchInserter
// when the batch is full or the flush interval elapses. A failed flush is
// logged and the batch is dropped. Record never waits for a flush: when the
// buffer is full the record is dropped.
type BatchRecorder struct {
	config    *BatchRecorderConfig
	inserter  BatchInserter
	logger    zerolog.Logger
	inputChan chan *Record
	wg        sync.WaitGroup
	done      chan struct{}

	mu      sync.RWMutex
	stopped bool
	dropped atomic.Int64
}

// NewBatchRecorder creates a new BatchRecorder. Call Start before Record.
func NewBatchRecorder(config *BatchRecorderConfig, inserter BatchInserter, logger zerolog.Logger) *BatchRecorder {
	if config.BatchSize <= 0 {
		config.BatchSize = 1
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 10 * time.Second
	}
	if config.InsertTimeout <= 0 {
		config.InsertTimeout = 30 * time.Second
	}
	return &BatchRecorder{
		config:    config,
		inserter:  inserter,
		logger:    logger.With().Str("component", "AuditBatchRecorder").Logger(),
		inputChan: make(chan *Record, config.BatchSize*2),
		done:      make(chan struct{}),
	}
}

// Start begins the batching worker. The context controls its lifecycle.
func (b *BatchRecorder) Start(ctx context.Context) {
	b.logger.Info().
		Int("batch_size", b.config.BatchSize).
		Dur("flush_interval", b.config.FlushInterval).
		Msg("Starting audit batch worker...")
	b.wg.Add(1)
	go b.worker(ctx)
}

// Record queues rec for the next flush without blocking.
func (b *BatchRecorder) Record(_ context.Context, rec Record) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.stopped {
		return ErrRecorderStopped
	}
	select {
	case b.inputChan <- &rec:
		return nil
	case <-b.done:
		return ErrRecorderStopped
	default:
		n := b.dropped.Add(1)
		b.logger.Warn().
			Str("collection", rec.Collection).
			Str("record_id", rec.RecordID).
			Int64("dropped_total", n).
			Msg("Audit buffer full, dropping record.")
		return ErrBufferFull
	}
}

// Dropped returns how many records were dropped because the buffer was full.
func (b *BatchRecorder) Dropped() int64 {
	return b.dropped.Load()
}

// Stop flushes buffered records and closes the inserter, respecting ctx's deadline.
func (b *BatchRecorder) Stop(ctx context.Context) error {
	b.logger.Info().Msg("Stopping audit batch recorder...")
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return nil
	}
	b.stopped = true
	close(b.inputChan)
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info().Msg("Audit batch worker stopped gracefully.")
	case <-ctx.Done():
		b.logger.Error().Err(ctx.Err()).Msg("Timeout waiting for audit batch worker to stop.")
		return ctx.Err()
	}

	if err := b.inserter.Close(); err != nil {
		b.logger.Error().Err(err).Msg("Error closing underlying audit inserter")
	}
	return nil
}

func (b *BatchRecorder) worker(ctx context.Context) {
	defer b.wg.Done()
	defer close(b.done)
	batch := make([]*Record, 0, b.config.BatchSize)
	ticker := time.NewTicker(b.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Drain what is already queued, then flush with a fresh context.
			batch = b.drain(batch)
			b.flush(context.Background(), batch)
			return

		case rec, ok := <-b.inputChan:
			if !ok {
				b.flush(ctx, batch)
				return
			}
			batch = append(batch, rec)
			if len(batch) >= b.config.BatchSize {
				b.flush(ctx, batch)
				batch = make([]*Record, 0, b.config.BatchSize)
				ticker.Reset(b.config.FlushInterval)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				b.flush(ctx, batch)
				batch = make([]*Record, 0, b.config.BatchSize)
			}
		}
	}
}

// drain appends the records currently buffered in inputChan to batch.
func (b *BatchRecorder) drain(batch []*Record) []*Record {
	for {
		select {
		case rec, ok := <-b.inputChan:
			if !ok {
				return batch
			}
			batch = append(batch, rec)
		default:
			return batch
		}
	}
}

func (b *BatchRecorder) flush(ctx context.Context, batch []*Record) {
	if len(batch) == 0 {
		return
	}
	insertCtx, cancel := context.WithTimeout(ctx, b.config.InsertTimeout)
	defer cancel()

	if err := b.inserter.InsertBatch(insertCtx, batch); err != nil {
		b.logger.Error().Err(err).Int("batch_size", len(batch)).Msg("Failed to insert audit batch.")
		return
	}
	b.logger.Debug().Int("batch_size", len(batch)).Msg("Flushed audit batch.")
}
