// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package writer

import (
	"context"

	"github.com/tomtom215/eventsim/internal/eventprocessor"
	"github.com/tomtom215/eventsim/internal/recommend"
)

// InteractionStore persists interaction records.
type InteractionStore interface {
	UpsertInteractions(ctx context.Context, rows []recommend.Interaction) error
}

// SimilarityStore persists similarity records.
type SimilarityStore interface {
	UpsertSimilarities(ctx context.Context, rows []recommend.SimilarityPair) error
}

// NewInteractionWriter writes the interaction log into store.
func NewInteractionWriter(cfg Config, poller eventprocessor.Poller, committer *eventprocessor.Committer, store InteractionStore) (*Writer[recommend.Interaction], error) {
	return New(cfg, poller, committer, decodeInteraction, store.UpsertInteractions)
}

// NewSimilarityWriter writes the similarity log into store.
func NewSimilarityWriter(cfg Config, poller eventprocessor.Poller, committer *eventprocessor.Committer, store SimilarityStore) (*Writer[recommend.SimilarityPair], error) {
	return New(cfg, poller, committer, decodeSimilarity, store.UpsertSimilarities)
}

func decodeInteraction(data []byte) (recommend.Interaction, error) {
	e, err := eventprocessor.DecodeInteraction(data)
	if err != nil {
		return recommend.Interaction{}, err
	}
	return recommend.InteractionFromEvent(e), nil
}

func decodeSimilarity(data []byte) (recommend.SimilarityPair, error) {
	u, err := eventprocessor.DecodeSimilarity(data)
	if err != nil {
		return recommend.SimilarityPair{}, err
	}
	return recommend.SimilarityPairFromUpdate(u), nil
}
