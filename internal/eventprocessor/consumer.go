// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package eventprocessor

import (
	"context"
	"errors"
	"fmt"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/eventsim/internal/metrics"
)

// LogMessage is one record read from a log. jetstream.Msg satisfies it.
type LogMessage interface {
	Data() []byte
	Ack() error
	DoubleAck(ctx context.Context) error
}

// Poller fetches batches of records in log order.
type Poller interface {
	// Poll returns up to one batch of records. An empty batch with a nil
	// error means the log was idle for the poll timeout.
	Poll(ctx context.Context) ([]LogMessage, error)
}

// ConsumerJetStream is the subset of jetstream.JetStream used by pollers.
type ConsumerJetStream interface {
	CreateOrUpdateConsumer(ctx context.Context, stream string, cfg jetstream.ConsumerConfig) (jetstream.Consumer, error)
}

// JetStreamPoller reads a stream through a durable pull consumer with
// AckAllPolicy.
type JetStreamPoller struct {
	consumer jetstream.Consumer
	config   ConsumerConfig
}

// NewJetStreamPoller creates or updates the durable consumer. A new consumer
// starts at the beginning of the stream; an existing one resumes after its
// last committed record.
func NewJetStreamPoller(ctx context.Context, js ConsumerJetStream, cfg ConsumerConfig) (*JetStreamPoller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	maxAckPending := cfg.MaxAckPending
	if maxAckPending == 0 {
		maxAckPending = cfg.BatchSize * 8
	}

	consumer, err := js.CreateOrUpdateConsumer(ctx, cfg.Stream, jetstream.ConsumerConfig{
		Durable:       cfg.Durable,
		AckPolicy:     jetstream.AckAllPolicy,
		AckWait:       cfg.AckWait,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		MaxAckPending: maxAckPending,
		MaxDeliver:    -1,
	})
	if err != nil {
		return nil, fmt.Errorf("create consumer %s on %s: %w", cfg.Durable, cfg.Stream, err)
	}
	return &JetStreamPoller{consumer: consumer, config: cfg}, nil
}

// Poll fetches up to BatchSize records, waiting at most PollTimeout.
func (p *JetStreamPoller) Poll(ctx context.Context) ([]LogMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch, err := p.consumer.Fetch(p.config.BatchSize, jetstream.FetchMaxWait(p.config.PollTimeout))
	if err != nil {
		if isIdle(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch from %s: %w", p.config.Stream, err)
	}

	var msgs []LogMessage
	for msg := range batch.Messages() {
		msgs = append(msgs, msg)
	}
	// a partial batch is kept; its error resurfaces on the next poll
	if err := batch.Error(); err != nil && !isIdle(err) && len(msgs) == 0 {
		return nil, fmt.Errorf("fetch from %s: %w", p.config.Stream, err)
	}

	if len(msgs) > 0 {
		metrics.RecordConsumed(p.config.Stream, len(msgs))
	}
	return msgs, nil
}

func isIdle(err error) bool {
	return errors.Is(err, natsgo.ErrTimeout) ||
		errors.Is(err, jetstream.ErrNoMessages) ||
		errors.Is(err, context.DeadlineExceeded)
}
