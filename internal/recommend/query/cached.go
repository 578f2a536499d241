// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package query

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/eventsim/internal/cache"
	"github.com/tomtom215/eventsim/internal/logging"
	"github.com/tomtom215/eventsim/internal/recommend"
)

// CachedService is a read-through cache in front of a Querier. Results are
// stale by at most ttl. Concurrent identical queries share one backend call.
type CachedService struct {
	next  Querier
	store cache.Store
	ttl   time.Duration
	group singleflight.Group
}

// NewCachedService wraps next with store.
func NewCachedService(next Querier, store cache.Store, ttl time.Duration) (*CachedService, error) {
	if next == nil || store == nil {
		return nil, fmt.Errorf("cached query service: querier and cache store are required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedService{next: next, store: store, ttl: ttl}, nil
}

// GetRecommendationsForUser implements Querier.
func (c *CachedService) GetRecommendationsForUser(ctx context.Context, userID int64, maxResults int) ([]recommend.ScoredItem, error) {
	key := fmt.Sprintf("%s:%d:%d", OpRecommendations, userID, maxResults)
	return c.load(ctx, key, func(ctx context.Context) ([]recommend.ScoredItem, error) {
		return c.next.GetRecommendationsForUser(ctx, userID, maxResults)
	})
}

// GetSimilarEvents implements Querier.
func (c *CachedService) GetSimilarEvents(ctx context.Context, itemID, userID int64, maxResults int) ([]recommend.ScoredItem, error) {
	key := fmt.Sprintf("%s:%d:%d:%d", OpSimilarEvents, itemID, userID, maxResults)
	return c.load(ctx, key, func(ctx context.Context) ([]recommend.ScoredItem, error) {
		return c.next.GetSimilarEvents(ctx, itemID, userID, maxResults)
	})
}

// GetInteractionsCount implements Querier. The key preserves request order
// because the result does.
func (c *CachedService) GetInteractionsCount(ctx context.Context, itemIDs []int64) ([]recommend.ScoredItem, error) {
	if len(itemIDs) == 0 {
		return c.next.GetInteractionsCount(ctx, itemIDs)
	}
	parts := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		parts[i] = strconv.FormatInt(id, 10)
	}
	key := OpInteractionsCount + ":" + strings.Join(parts, ",")
	ids := slices.Clone(itemIDs)
	return c.load(ctx, key, func(ctx context.Context) ([]recommend.ScoredItem, error) {
		return c.next.GetInteractionsCount(ctx, ids)
	})
}

// load serves key from the cache or computes it once for all concurrent
// callers. Cache failures degrade to a backend call; they never fail a query.
func (c *CachedService) load(ctx context.Context, key string, compute func(context.Context) ([]recommend.ScoredItem, error)) ([]recommend.ScoredItem, error) {
	if data, ok, err := c.store.Get(ctx, key); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Query cache read failed")
	} else if ok {
		var items []recommend.ScoredItem
		if err := json.Unmarshal(data, &items); err == nil {
			return items, nil
		}
		logging.Warn().Str("key", key).Msg("Discarding undecodable cache entry")
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// detached so one caller's cancellation does not fail the others
		items, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(items); err == nil {
			if err := c.store.Set(context.WithoutCancel(ctx), key, data, c.ttl); err != nil {
				logging.Warn().Err(err).Str("key", key).Msg("Query cache write failed")
			}
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	items := v.([]recommend.ScoredItem)
	return slices.Clone(items), nil
}

var _ Querier = (*CachedService)(nil)
