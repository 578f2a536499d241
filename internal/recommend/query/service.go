// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package query

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/tomtom215/eventsim/internal/logging"
	"github.com/tomtom215/eventsim/internal/metrics"
	"github.com/tomtom215/eventsim/internal/recommend"
)

// Operation names used in logs, metrics and cache keys.
const (
	OpRecommendations   = "recommendations"
	OpSimilarEvents     = "similar_events"
	OpInteractionsCount = "interactions_count"
)

// Store is the read side of the interaction and similarity tables.
// *database.DB and *postgres.Store satisfy it.
type Store interface {
	// RecentItems returns up to limit item ids the user interacted with,
	// most recent first.
	RecentItems(ctx context.Context, userID int64, limit int) ([]int64, error)

	// PairsTouching returns pairs with an endpoint in itemIDs, highest
	// score first. limit <= 0 returns every match.
	PairsTouching(ctx context.Context, itemIDs []int64, limit int) ([]recommend.SimilarityPair, error)

	// InteractedItems returns the subset of itemIDs the user interacted with.
	InteractedItems(ctx context.Context, userID int64, itemIDs []int64) ([]int64, error)

	// RatingSums returns the rating sum per item; items without
	// interactions are absent.
	RatingSums(ctx context.Context, itemIDs []int64) (map[int64]float64, error)
}

// Querier is the recommendation query surface.
type Querier interface {
	GetRecommendationsForUser(ctx context.Context, userID int64, maxResults int) ([]recommend.ScoredItem, error)
	GetSimilarEvents(ctx context.Context, itemID, userID int64, maxResults int) ([]recommend.ScoredItem, error)
	GetInteractionsCount(ctx context.Context, itemIDs []int64) ([]recommend.ScoredItem, error)
}

// Service answers queries straight from a Store. It holds no mutable state
// and is safe for concurrent use.
type Service struct {
	store Store
}

// NewService creates a query service over store.
func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("query service: store is required")
	}
	return &Service{store: store}, nil
}

// GetRecommendationsForUser recommends items similar to the ones the user
// interacted with most recently. Items already among those seeds are never
// returned; each candidate keeps its best score.
func (s *Service) GetRecommendationsForUser(ctx context.Context, userID int64, maxResults int) (_ []recommend.ScoredItem, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery(OpRecommendations, time.Since(start), err) }()

	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id %d", recommend.ErrInvalidArgument, userID)
	}
	if maxResults <= 0 {
		return nil, fmt.Errorf("%w: max results %d", recommend.ErrInvalidArgument, maxResults)
	}

	seeds, err := s.store.RecentItems(ctx, userID, maxResults)
	if err != nil {
		return nil, storeError("recent items", err)
	}
	if len(seeds) == 0 {
		return []recommend.ScoredItem{}, nil
	}

	pairs, err := s.store.PairsTouching(ctx, seeds, maxResults)
	if err != nil {
		return nil, storeError("similarity pairs", err)
	}

	seedSet := toSet(seeds)
	best := make(map[int64]float64)
	for _, p := range pairs {
		_, aSeed := seedSet[p.ItemA]
		_, bSeed := seedSet[p.ItemB]
		var candidate int64
		switch {
		case aSeed && bSeed:
			continue
		case aSeed:
			candidate = p.ItemB
		case bSeed:
			candidate = p.ItemA
		default:
			continue
		}
		if cur, ok := best[candidate]; !ok || p.Score > cur {
			best[candidate] = p.Score
		}
	}

	out := make([]recommend.ScoredItem, 0, len(best))
	for id, score := range best {
		out = append(out, recommend.ScoredItem{ItemID: id, Score: score})
	}
	sortScored(out)

	logging.Debug().
		Int64("user_id", userID).
		Int("seeds", len(seeds)).
		Int("pairs", len(pairs)).
		Int("returned", len(out)).
		Msg("Recommendations computed")
	return out, nil
}

// GetSimilarEvents returns the items most similar to itemID, dropping pairs
// the user has already interacted with on both sides.
func (s *Service) GetSimilarEvents(ctx context.Context, itemID, userID int64, maxResults int) (_ []recommend.ScoredItem, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery(OpSimilarEvents, time.Since(start), err) }()

	if itemID <= 0 || userID <= 0 {
		return nil, fmt.Errorf("%w: item id %d, user id %d", recommend.ErrInvalidArgument, itemID, userID)
	}
	if maxResults <= 0 {
		return nil, fmt.Errorf("%w: max results %d", recommend.ErrInvalidArgument, maxResults)
	}

	pairs, err := s.store.PairsTouching(ctx, []int64{itemID}, 0)
	if err != nil {
		return nil, storeError("similarity pairs", err)
	}
	if len(pairs) == 0 {
		return []recommend.ScoredItem{}, nil
	}

	candidates := make([]int64, 0, len(pairs)+1)
	candidates = append(candidates, itemID)
	for _, p := range pairs {
		candidates = append(candidates, p.Pair().Other(itemID))
	}
	seenIDs, err := s.store.InteractedItems(ctx, userID, candidates)
	if err != nil {
		return nil, storeError("interacted items", err)
	}
	seen := toSet(seenIDs)

	out := make([]recommend.ScoredItem, 0, len(pairs))
	for _, p := range pairs {
		_, aSeen := seen[p.ItemA]
		_, bSeen := seen[p.ItemB]
		if aSeen && bSeen {
			continue
		}
		out = append(out, recommend.ScoredItem{ItemID: p.Pair().Other(itemID), Score: p.Score})
	}
	sortScored(out)
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}

// GetInteractionsCount returns the rating sum per requested item, in request
// order with duplicates removed. Items nobody interacted with are absent.
func (s *Service) GetInteractionsCount(ctx context.Context, itemIDs []int64) (_ []recommend.ScoredItem, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery(OpInteractionsCount, time.Since(start), err) }()

	if len(itemIDs) == 0 {
		return []recommend.ScoredItem{}, nil
	}
	ids := make([]int64, 0, len(itemIDs))
	seen := make(map[int64]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		if id <= 0 {
			return nil, fmt.Errorf("%w: item id %d", recommend.ErrInvalidArgument, id)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	sums, err := s.store.RatingSums(ctx, ids)
	if err != nil {
		return nil, storeError("rating sums", err)
	}

	out := make([]recommend.ScoredItem, 0, len(sums))
	for _, id := range ids {
		if sum, ok := sums[id]; ok {
			out = append(out, recommend.ScoredItem{ItemID: id, Score: sum})
		}
	}
	return out, nil
}

func storeError(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", recommend.ErrStoreUnavailable, what, err)
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// sortScored orders by score descending, then item id ascending.
func sortScored(items []recommend.ScoredItem) {
	slices.SortFunc(items, func(a, b recommend.ScoredItem) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ItemID, b.ItemID)
	})
}

var _ Querier = (*Service)(nil)
