// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package eventprocessor

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/eventsim/internal/recommend"
)

// updateNamespace seeds deterministic message ids for similarity updates, so
// an identical update re-emitted after a restart is dropped by JetStream's
// duplicate window.
var updateNamespace = uuid.MustParse("6f1f4d1e-55d4-4c0b-9f59-4a3c0d7e2b11")

// Publisher wraps a Watermill NATS JetStream publisher with circuit breaker
// protection.
type Publisher struct {
	publisher      message.Publisher
	circuitBreaker *gobreaker.CircuitBreaker[interface{}]
	partitions     int
	mu             sync.RWMutex
	closed         bool
	logger         watermill.LoggerAdapter
}

// NewPublisher creates a JetStream publisher. Streams must already exist.
func NewPublisher(cfg PublisherConfig, partitions int, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOptions(cfg.ConnConfig, logger),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false, // streams are created by StreamInitializer
			TrackMsgId:    cfg.EnableTrackMsgID,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}
	return newPublisher(pub, partitions, logger), nil
}

func newPublisher(pub message.Publisher, partitions int, logger watermill.LoggerAdapter) *Publisher {
	if partitions < 1 {
		partitions = 1
	}
	return &Publisher{publisher: pub, partitions: partitions, logger: logger}
}

// SetCircuitBreaker configures the circuit breaker for publish operations.
func (p *Publisher) SetCircuitBreaker(cb *gobreaker.CircuitBreaker[interface{}]) {
	p.circuitBreaker = cb
}

// Publish sends messages to topic. The message UUID becomes the Nats-Msg-Id
// unless one is already set.
func (p *Publisher) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, msg := range msgs {
		if msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
			msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
		}
		msg.SetContext(ctx)
	}

	if p.circuitBreaker != nil {
		_, err := p.circuitBreaker.Execute(func() (interface{}, error) {
			return nil, p.publisher.Publish(topic, msgs...)
		})
		return err
	}
	return p.publisher.Publish(topic, msgs...)
}

// PublishInteraction publishes e to its partition and returns the message id.
func (p *Publisher) PublishInteraction(ctx context.Context, e recommend.InteractionEvent) (string, error) {
	data, err := EncodeInteraction(e)
	if err != nil {
		return "", err
	}
	msg := message.NewMessage(uuid.NewString(), data)
	msg.Metadata.Set("action", e.Action.String())
	msg.Metadata.Set("item_id", strconv.FormatInt(e.ItemID, 10))

	if err := p.Publish(ctx, InteractionSubject(e.ItemID, p.partitions), msg); err != nil {
		return "", fmt.Errorf("publish interaction: %w", err)
	}
	return msg.UUID, nil
}

// PublishSimilarityUpdates publishes updates in order to the similarity log.
func (p *Publisher) PublishSimilarityUpdates(ctx context.Context, updates []recommend.SimilarityUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	msgs := make([]*message.Message, 0, len(updates))
	for _, u := range updates {
		data, err := EncodeSimilarity(u)
		if err != nil {
			return err
		}
		msgs = append(msgs, message.NewMessage(SimilarityMessageID(u), data))
	}
	if err := p.Publish(ctx, SimilaritiesSubject, msgs...); err != nil {
		return fmt.Errorf("publish %d similarity updates: %w", len(updates), err)
	}
	return nil
}

// SimilarityMessageID derives a stable id from the update's content.
func SimilarityMessageID(u recommend.SimilarityUpdate) string {
	key := strconv.FormatInt(u.ItemA, 10) + ":" +
		strconv.FormatInt(u.ItemB, 10) + ":" +
		strconv.FormatUint(math.Float64bits(u.Score), 16) + ":" +
		strconv.FormatInt(u.Timestamp.UnixNano(), 10)
	return uuid.NewSHA1(updateNamespace, []byte(key)).String()
}

// Close shuts down the publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}
