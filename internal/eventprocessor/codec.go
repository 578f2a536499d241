// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package eventprocessor

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/eventsim/internal/recommend"
)

// EncodeInteraction validates and marshals an interaction event.
func EncodeInteraction(e recommend.InteractionEvent) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("validate interaction: %w", err)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal interaction: %w", err)
	}
	return data, nil
}

// DecodeInteraction parses and validates an interaction log record.
func DecodeInteraction(data []byte) (recommend.InteractionEvent, error) {
	var e recommend.InteractionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if err := e.Validate(); err != nil {
		return e, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return e, nil
}

// EncodeSimilarity validates and marshals a similarity update.
func EncodeSimilarity(u recommend.SimilarityUpdate) ([]byte, error) {
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("validate similarity update: %w", err)
	}
	data, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("marshal similarity update: %w", err)
	}
	return data, nil
}

// DecodeSimilarity parses and validates a similarity log record.
func DecodeSimilarity(data []byte) (recommend.SimilarityUpdate, error) {
	var u recommend.SimilarityUpdate
	if err := json.Unmarshal(data, &u); err != nil {
		return u, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if err := u.Validate(); err != nil {
		return u, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return u, nil
}
