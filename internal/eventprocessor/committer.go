// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package eventprocessor

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/eventsim/internal/logging"
	"github.com/tomtom215/eventsim/internal/metrics"
)

// RoundTrip waits until everything written on a connection has reached the
// broker. (*nats.Conn).FlushWithContext satisfies it.
type RoundTrip func(ctx context.Context) error

// Committer tracks the last processed record of a consumer and commits
// positions. It is not safe for concurrent use; one goroutine owns it.
type Committer struct {
	name      string
	roundTrip RoundTrip
	last      LogMessage
	lastAcked bool
	flushed   bool
}

// NewCommitter creates a committer for the named consumer. roundTrip may be
// nil, in which case Flush trusts a sent async commit.
func NewCommitter(name string, roundTrip RoundTrip) *Committer {
	return &Committer{name: name, roundTrip: roundTrip, flushed: true}
}

// Commit asynchronously commits every record up to and including msg.
// Failures are logged and counted; the next commit or Flush covers them.
func (c *Committer) Commit(msg LogMessage) {
	if msg == nil {
		return
	}
	c.last = msg
	c.flushed = false
	c.lastAcked = false
	if err := msg.Ack(); err != nil {
		metrics.RecordCommitError(c.name, "async")
		logging.Warn().Err(err).Str("consumer", c.name).Msg("Async commit failed")
		return
	}
	c.lastAcked = true
}

// Flush synchronously confirms the last record passed to Commit. If its async
// commit was sent, Flush waits for the connection round trip; otherwise it
// commits again and waits for the broker's reply. Calling Flush with nothing
// new is a no-op.
func (c *Committer) Flush(ctx context.Context) error {
	if c.flushed || c.last == nil {
		return nil
	}

	var err error
	if c.lastAcked {
		if c.roundTrip != nil {
			err = c.roundTrip(ctx)
		}
	} else {
		err = c.last.DoubleAck(ctx)
		if errors.Is(err, jetstream.ErrMsgAlreadyAckd) {
			err = nil
		}
	}
	if err != nil {
		metrics.RecordCommitError(c.name, "sync")
		return fmt.Errorf("sync commit for %s: %w", c.name, err)
	}
	c.flushed = true
	return nil
}
