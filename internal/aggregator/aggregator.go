// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/eventsim/internal/eventprocessor"
	"github.com/tomtom215/eventsim/internal/logging"
	"github.com/tomtom215/eventsim/internal/metrics"
	"github.com/tomtom215/eventsim/internal/recommend"
	"github.com/tomtom215/eventsim/internal/recommend/similarity"
)

const logName = "interactions"

// Emitter publishes similarity updates in order. *eventprocessor.Publisher
// satisfies it.
type Emitter interface {
	PublishSimilarityUpdates(ctx context.Context, updates []recommend.SimilarityUpdate) error
}

// Checkpointer persists state deltas and restores them on start.
// *wal.Checkpoint satisfies it.
type Checkpointer interface {
	Save(ctx context.Context, d similarity.Delta) error
	RestoreInto(ctx context.Context, s *similarity.State) (int, error)
}

// Stats holds runtime counters for monitoring.
type Stats struct {
	Runs            int64
	BatchesApplied  int64
	EventsApplied   int64
	EventsSkipped   int64
	UpdatesEmitted  int64
	PublishRetries  int64
	LastCommittedAt time.Time
	State           similarity.Stats
}

// batchResult is what the apply stage hands to the emit stage. It shares no
// memory with the state.
type batchResult struct {
	updates []recommend.SimilarityUpdate
	delta   similarity.Delta
	last    eventprocessor.LogMessage
}

// Aggregator consumes the interaction log and produces the similarity log.
type Aggregator struct {
	config     Config
	poller     eventprocessor.Poller
	committer  *eventprocessor.Committer
	emitter    Emitter
	checkpoint Checkpointer

	running atomic.Bool

	runs           atomic.Int64
	batchesApplied atomic.Int64
	eventsApplied  atomic.Int64
	eventsSkipped  atomic.Int64
	updatesEmitted atomic.Int64
	publishRetries atomic.Int64
	lastCommit     atomic.Int64
	stateStats     atomic.Pointer[similarity.Stats]
}

// New creates an aggregator. The committer must belong to the same consumer
// as poller.
func New(cfg Config, poller eventprocessor.Poller, committer *eventprocessor.Committer, emitter Emitter, checkpoint Checkpointer) (*Aggregator, error) {
	if poller == nil || committer == nil || emitter == nil || checkpoint == nil {
		return nil, fmt.Errorf("aggregator: poller, committer, emitter and checkpoint are required")
	}
	cfg.applyDefaults()
	a := &Aggregator{
		config:     cfg,
		poller:     poller,
		committer:  committer,
		emitter:    emitter,
		checkpoint: checkpoint,
	}
	a.stateStats.Store(&similarity.Stats{})
	return a, nil
}

// Run restores state from the checkpoint and runs the pipeline until ctx is
// canceled or a stage fails. Cancellation is a clean exit: fetched batches
// drain, and the final offset is committed synchronously.
func (a *Aggregator) Run(ctx context.Context) (err error) {
	if !a.running.CompareAndSwap(false, true) {
		return fmt.Errorf("aggregator already running")
	}
	defer a.running.Store(false)
	a.runs.Add(1)

	logger := logging.WithComponent("aggregator")

	state := similarity.New()
	restored, err := a.checkpoint.RestoreInto(ctx, state)
	if err != nil {
		return fmt.Errorf("restore aggregator state: %w", err)
	}
	a.publishState(state)
	logger.Info().Int("weights", restored).Msg("Similarity aggregator started")

	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), a.config.FlushTimeout)
		defer cancel()
		if flushErr := a.committer.Flush(flushCtx); flushErr != nil {
			logger.Error().Err(flushErr).Msg("Final commit failed")
			if err == nil {
				err = flushErr
			}
		}
		logger.Info().Msg("Similarity aggregator stopped")
	}()

	// The pipeline context is canceled only by a failing stage, so emit can
	// finish in-flight batches after ctx ends.
	g, pctx := errgroup.WithContext(context.Background())
	pollCtx, stopPolling := context.WithCancel(pctx)
	defer stopPolling()
	stop := context.AfterFunc(ctx, stopPolling)
	defer stop()

	inbound := make(chan []eventprocessor.LogMessage, a.config.QueueDepth)
	outbound := make(chan batchResult, a.config.QueueDepth)

	g.Go(func() error { return a.pollStage(pollCtx, inbound) })
	g.Go(func() error { return a.applyStage(pctx, state, inbound, outbound) })
	g.Go(func() error { return a.emitStage(pctx, outbound) })

	return g.Wait()
}

// pollStage fetches batches until ctx ends. Poll errors are retried; the
// broker client reconnects on its own.
func (a *Aggregator) pollStage(ctx context.Context, inbound chan<- []eventprocessor.LogMessage) error {
	defer close(inbound)
	for {
		msgs, err := a.poller.Poll(ctx)
		if ctx.Err() != nil {
			// a batch fetched while stopping is left uncommitted
			return nil
		}
		if err != nil {
			logging.Warn().Err(err).Str("log", logName).Msg("Poll failed")
			if !sleepCtx(ctx, a.config.PollRetryWait) {
				return nil
			}
			continue
		}
		if len(msgs) == 0 {
			continue
		}
		select {
		case inbound <- msgs:
		case <-ctx.Done():
			return nil
		}
	}
}

// applyStage owns state. It runs until inbound is closed and drained.
func (a *Aggregator) applyStage(ctx context.Context, state *similarity.State, inbound <-chan []eventprocessor.LogMessage, outbound chan<- batchResult) error {
	defer close(outbound)
	for msgs := range inbound {
		res := a.apply(state, msgs)
		select {
		case outbound <- res:
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

func (a *Aggregator) apply(state *similarity.State, msgs []eventprocessor.LogMessage) batchResult {
	start := time.Now()
	var updates []recommend.SimilarityUpdate
	applied := 0
	for _, m := range msgs {
		e, err := eventprocessor.DecodeInteraction(m.Data())
		if err != nil {
			a.eventsSkipped.Add(1)
			metrics.RecordSkipped(logName, skipReason(err))
			logging.Warn().Err(err).Str("log", logName).Msg("Skipping malformed record")
			continue
		}
		updates = append(updates, state.Apply(e)...)
		applied++
	}

	a.batchesApplied.Add(1)
	a.eventsApplied.Add(int64(applied))
	a.publishState(state)
	metrics.RecordBatch("apply", time.Since(start))

	return batchResult{
		updates: updates,
		delta:   state.TakeDelta(),
		last:    msgs[len(msgs)-1],
	}
}

// emitStage publishes, checkpoints and commits each batch in order.
func (a *Aggregator) emitStage(ctx context.Context, outbound <-chan batchResult) error {
	for res := range outbound {
		start := time.Now()
		if err := a.emit(ctx, res.updates); err != nil {
			return fmt.Errorf("%w: %w", ErrPipelineFatal, err)
		}
		if !res.delta.Empty() {
			if err := a.checkpoint.Save(ctx, res.delta); err != nil {
				return fmt.Errorf("%w: %w", ErrPipelineFatal, err)
			}
		}
		a.committer.Commit(res.last)
		a.lastCommit.Store(time.Now().UnixNano())
		metrics.RecordBatch("emit", time.Since(start))
	}
	return nil
}

// emit publishes updates with bounded retry. An open circuit breaker in the
// emitter fails attempts fast; the retries still wait it out.
func (a *Aggregator) emit(ctx context.Context, updates []recommend.SimilarityUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	var lastErr error
	for attempt := 1; attempt <= a.config.EmitRetries; attempt++ {
		lastErr = a.emitter.PublishSimilarityUpdates(ctx, updates)
		metrics.RecordPublish("aggregator", lastErr)
		if lastErr == nil {
			a.updatesEmitted.Add(int64(len(updates)))
			metrics.RecordUpdatesEmitted(len(updates))
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Int("max_attempts", a.config.EmitRetries).
			Int("updates", len(updates)).
			Msg("Publishing similarity updates failed")
		if attempt < a.config.EmitRetries {
			a.publishRetries.Add(1)
			if !sleepCtx(ctx, a.config.EmitRetryWait) {
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("publish after %d attempts: %w", a.config.EmitRetries, lastErr)
}

func (a *Aggregator) publishState(state *similarity.State) {
	s := state.Stats()
	a.stateStats.Store(&s)
	metrics.SetAggregatorState(s.Items, s.Users, s.Pairs)
}

// IsRunning reports whether Run is active.
func (a *Aggregator) IsRunning() bool {
	return a.running.Load()
}

// Stats returns a snapshot of the pipeline counters.
func (a *Aggregator) Stats() Stats {
	s := Stats{
		Runs:           a.runs.Load(),
		BatchesApplied: a.batchesApplied.Load(),
		EventsApplied:  a.eventsApplied.Load(),
		EventsSkipped:  a.eventsSkipped.Load(),
		UpdatesEmitted: a.updatesEmitted.Load(),
		PublishRetries: a.publishRetries.Load(),
		State:          *a.stateStats.Load(),
	}
	if ns := a.lastCommit.Load(); ns != 0 {
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
