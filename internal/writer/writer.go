// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package writer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tomtom215/eventsim/internal/eventprocessor"
	"github.com/tomtom215/eventsim/internal/logging"
	"github.com/tomtom215/eventsim/internal/metrics"
)

// ErrStoreExhausted is returned by Run when an upsert failed on every retry.
var ErrStoreExhausted = errors.New("store retries exhausted")

// Config holds writer loop settings.
type Config struct {
	// Name labels logs and metrics, e.g. "interactions".
	Name string

	// StoreRetries is the number of upsert attempts per batch.
	StoreRetries int

	// StoreRetryWait is the fixed pause between attempts.
	StoreRetryWait time.Duration

	// FlushTimeout bounds the synchronous commit on exit.
	FlushTimeout time.Duration
}

// DefaultConfig returns defaults for the named writer.
func DefaultConfig(name string) Config {
	return Config{
		Name:           name,
		StoreRetries:   5,
		StoreRetryWait: 200 * time.Millisecond,
		FlushTimeout:   10 * time.Second,
	}
}

// Stats holds runtime counters for monitoring.
type Stats struct {
	BatchesWritten  int64
	RecordsWritten  int64
	RecordsSkipped  int64
	StoreRetries    int64
	LastBatchTime   time.Time
	LastCommittedAt time.Time
}

// DecodeFunc turns a raw record into a store row.
type DecodeFunc[T any] func(data []byte) (T, error)

// UpsertFunc persists a batch of rows idempotently.
type UpsertFunc[T any] func(ctx context.Context, rows []T) error

// Writer consumes one log into one store table.
type Writer[T any] struct {
	config    Config
	poller    eventprocessor.Poller
	committer *eventprocessor.Committer
	decode    DecodeFunc[T]
	upsert    UpsertFunc[T]

	running atomic.Bool

	batchesWritten atomic.Int64
	recordsWritten atomic.Int64
	recordsSkipped atomic.Int64
	storeRetries   atomic.Int64
	lastBatch      atomic.Int64
	lastCommit     atomic.Int64
}

// New creates a writer. The committer must belong to the same consumer as
// poller.
func New[T any](cfg Config, poller eventprocessor.Poller, committer *eventprocessor.Committer, decode DecodeFunc[T], upsert UpsertFunc[T]) (*Writer[T], error) {
	if poller == nil || committer == nil || decode == nil || upsert == nil {
		return nil, fmt.Errorf("writer %s: poller, committer, decode and upsert are required", cfg.Name)
	}
	if cfg.StoreRetries < 1 {
		cfg.StoreRetries = 1
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = 10 * time.Second
	}
	return &Writer[T]{
		config:    cfg,
		poller:    poller,
		committer: committer,
		decode:    decode,
		upsert:    upsert,
	}, nil
}

// Run consumes until ctx is canceled or the store is exhausted. It always
// attempts a final synchronous commit before returning.
func (w *Writer[T]) Run(ctx context.Context) (err error) {
	if !w.running.CompareAndSwap(false, true) {
		return fmt.Errorf("writer %s already running", w.config.Name)
	}
	defer w.running.Store(false)

	logger := logging.WithComponent("writer")
	logger.Info().Str("log", w.config.Name).Msg("Store writer started")

	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), w.config.FlushTimeout)
		defer cancel()
		if flushErr := w.committer.Flush(flushCtx); flushErr != nil {
			logger.Error().Err(flushErr).Str("log", w.config.Name).Msg("Final commit failed")
			if err == nil {
				err = flushErr
			}
		}
		logger.Info().Str("log", w.config.Name).Msg("Store writer stopped")
	}()

	for {
		msgs, pollErr := w.poller.Poll(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if pollErr != nil {
			// the broker client reconnects on its own; keep polling
			logger.Warn().Err(pollErr).Str("log", w.config.Name).Msg("Poll failed")
			if !sleepCtx(ctx, w.config.StoreRetryWait) {
				return nil
			}
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		if err := w.processBatch(ctx, msgs); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// processBatch decodes, upserts and commits one batch.
func (w *Writer[T]) processBatch(ctx context.Context, msgs []eventprocessor.LogMessage) error {
	start := time.Now()
	rows := make([]T, 0, len(msgs))
	for _, m := range msgs {
		row, err := w.decode(m.Data())
		if err != nil {
			w.recordsSkipped.Add(1)
			metrics.RecordSkipped(w.config.Name, skipReason(err))
			logging.Warn().Err(err).Str("log", w.config.Name).Msg("Skipping malformed record")
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) > 0 {
		if err := w.upsertWithRetry(ctx, rows); err != nil {
			return err
		}
	}

	w.committer.Commit(msgs[len(msgs)-1])
	now := time.Now()
	w.lastCommit.Store(now.UnixNano())
	w.lastBatch.Store(now.UnixNano())
	w.batchesWritten.Add(1)
	w.recordsWritten.Add(int64(len(rows)))
	metrics.RecordBatch("write_"+w.config.Name, time.Since(start))
	return nil
}

func (w *Writer[T]) upsertWithRetry(ctx context.Context, rows []T) error {
	var lastErr error
	for attempt := 1; attempt <= w.config.StoreRetries; attempt++ {
		lastErr = w.upsert(ctx, rows)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Warn().
			Err(lastErr).
			Str("log", w.config.Name).
			Int("attempt", attempt).
			Int("max_attempts", w.config.StoreRetries).
			Msg("Store upsert failed")
		if attempt < w.config.StoreRetries {
			w.storeRetries.Add(1)
			if !sleepCtx(ctx, w.config.StoreRetryWait) {
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("%w: %s after %d attempts: %w", ErrStoreExhausted, w.config.Name, w.config.StoreRetries, lastErr)
}

// IsRunning reports whether Run is active.
func (w *Writer[T]) IsRunning() bool {
	return w.running.Load()
}

// Name returns the log name the writer consumes.
func (w *Writer[T]) Name() string {
	return w.config.Name
}

// Stats returns a snapshot of the writer counters.
func (w *Writer[T]) Stats() Stats {
	s := Stats{
		BatchesWritten: w.batchesWritten.Load(),
		RecordsWritten: w.recordsWritten.Load(),
		RecordsSkipped: w.recordsSkipped.Load(),
		StoreRetries:   w.storeRetries.Load(),
	}
	if ns := w.lastBatch.Load(); ns != 0 {
		s.LastBatchTime = time.Unix(0, ns)
	}
	if ns := w.lastCommit.Load(); ns != 0 {
		s.LastCommittedAt = time.Unix(0, ns)
	}
	return s
}

func skipReason(err error) string {
	if errors.Is(err, eventprocessor.ErrInvalidRecord) {
		return "invalid"
	}
	return "malformed"
}

// sleepCtx waits d or until ctx ends; it reports whether the wait completed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
