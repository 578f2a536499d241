// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/eventsim/internal/logging"
	"github.com/tomtom215/eventsim/internal/metrics"
	"github.com/tomtom215/eventsim/internal/recommend"
	"github.com/tomtom215/eventsim/internal/validation"
)

// RawAction is a user action as submitted by a client.
type RawAction struct {
	UserID int64  `json:"user_id" validate:"gt=0"`
	ItemID int64  `json:"item_id" validate:"gt=0"`
	Action string `json:"action" validate:"required"`

	// Timestamp defaults to the time of ingestion.
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Receipt identifies an appended event.
type Receipt struct {
	MessageID string                     `json:"message_id"`
	Event     recommend.InteractionEvent `json:"event"`
}

// Publisher appends events to the interaction log.
// *eventprocessor.Publisher satisfies it.
type Publisher interface {
	PublishInteraction(ctx context.Context, e recommend.InteractionEvent) (string, error)
}

// Ingestor validates and publishes raw actions.
type Ingestor struct {
	publisher Publisher
	now       func() time.Time
}

// New creates an ingestor.
func New(publisher Publisher) (*Ingestor, error) {
	if publisher == nil {
		return nil, fmt.Errorf("ingestor: publisher is required")
	}
	return &Ingestor{publisher: publisher, now: time.Now}, nil
}

// Normalize converts a raw action to an event without publishing it. The
// action name is case-insensitive; timestamps are converted to UTC.
func (i *Ingestor) Normalize(raw RawAction) (recommend.InteractionEvent, error) {
	if err := validation.ValidateStruct(&raw); err != nil {
		return recommend.InteractionEvent{}, err
	}
	kind, err := recommend.ParseActionKind(raw.Action)
	if err != nil {
		return recommend.InteractionEvent{}, err
	}

	ts := i.now().UTC()
	if raw.Timestamp != nil && !raw.Timestamp.IsZero() {
		ts = raw.Timestamp.UTC()
	}

	e := recommend.InteractionEvent{
		UserID:    raw.UserID,
		ItemID:    raw.ItemID,
		Action:    kind,
		Timestamp: ts,
	}
	if err := e.Validate(); err != nil {
		return recommend.InteractionEvent{}, err
	}
	return e, nil
}

// Record normalizes raw and appends it to the interaction log.
func (i *Ingestor) Record(ctx context.Context, raw RawAction) (Receipt, error) {
	e, err := i.Normalize(raw)
	if err != nil {
		return Receipt{}, err
	}

	id, err := i.publisher.PublishInteraction(ctx, e)
	if err != nil {
		return Receipt{}, fmt.Errorf("record interaction: %w", err)
	}

	metrics.RecordIngest(e.Action.String())
	logging.Debug().
		Str("message_id", id).
		Int64("user_id", e.UserID).
		Int64("item_id", e.ItemID).
		Str("action", e.Action.String()).
		Msg("Interaction recorded")

	return Receipt{MessageID: id, Event: e}, nil
}
