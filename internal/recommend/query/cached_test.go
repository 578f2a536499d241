// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package query

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/eventsim/internal/cache"
	"github.com/tomtom215/eventsim/internal/recommend"
)

type countingQuerier struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (q *countingQuerier) wait() {
	if q.release != nil {
		<-q.release
	}
}

func (q *countingQuerier) GetRecommendationsForUser(ctx context.Context, userID int64, maxResults int) ([]recommend.ScoredItem, error) {
	q.calls.Add(1)
	q.wait()
	if q.err != nil {
		return nil, q.err
	}
	return []recommend.ScoredItem{{ItemID: userID + 100, Score: 0.5}}, nil
}

func (q *countingQuerier) GetSimilarEvents(ctx context.Context, itemID, userID int64, maxResults int) ([]recommend.ScoredItem, error) {
	q.calls.Add(1)
	q.wait()
	return []recommend.ScoredItem{{ItemID: itemID + 1, Score: 0.25}}, nil
}

func (q *countingQuerier) GetInteractionsCount(ctx context.Context, itemIDs []int64) ([]recommend.ScoredItem, error) {
	q.calls.Add(1)
	out := []recommend.ScoredItem{}
	for _, id := range itemIDs {
		out = append(out, recommend.ScoredItem{ItemID: id, Score: 1})
	}
	return out, nil
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("redis: connection refused")
}
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("redis: connection refused")
}
func (brokenStore) Close() error { return nil }

func TestCachedService_HitsCache(t *testing.T) {
	next := &countingQuerier{}
	c, err := NewCachedService(next, cache.NewMemoryStore("query_test", 100), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	first, _ := c.GetRecommendationsForUser(ctx, 1, 10)
	second, _ := c.GetRecommendationsForUser(ctx, 1, 10)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached result %v differs from %v", second, first)
	}
	if next.calls.Load() != 1 {
		t.Errorf("backend calls = %d, want 1", next.calls.Load())
	}

	// different arguments are different keys
	_, _ = c.GetRecommendationsForUser(ctx, 1, 5)
	_, _ = c.GetSimilarEvents(ctx, 1, 1, 10)
	_, _ = c.GetSimilarEvents(ctx, 1, 1, 10)
	_, _ = c.GetInteractionsCount(ctx, []int64{2, 1})
	_, _ = c.GetInteractionsCount(ctx, []int64{1, 2})
	if next.calls.Load() != 5 {
		t.Errorf("backend calls = %d, want 5", next.calls.Load())
	}
}

func TestCachedService_ErrorsAreNotCached(t *testing.T) {
	next := &countingQuerier{err: recommend.ErrStoreUnavailable}
	c, _ := NewCachedService(next, cache.NewMemoryStore("query_test_errors", 100), time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := c.GetRecommendationsForUser(ctx, 1, 10); !errors.Is(err, recommend.ErrStoreUnavailable) {
			t.Fatalf("error = %v, want ErrStoreUnavailable", err)
		}
	}
	if next.calls.Load() != 2 {
		t.Errorf("backend calls = %d, want 2", next.calls.Load())
	}
}

func TestCachedService_CoalescesConcurrentQueries(t *testing.T) {
	next := &countingQuerier{release: make(chan struct{})}
	c, _ := NewCachedService(next, cache.NewMemoryStore("query_test_flight", 100), time.Minute)

	const callers = 8
	var wg sync.WaitGroup
	results := make([][]recommend.ScoredItem, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.GetSimilarEvents(context.Background(), 7, 1, 3)
		}(i)
	}

	for next.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	// let late callers join the in-flight call
	time.Sleep(20 * time.Millisecond)
	close(next.release)
	wg.Wait()

	if got := next.calls.Load(); got != 1 {
		t.Errorf("backend calls = %d, want 1", got)
	}
	for i, r := range results {
		if len(r) != 1 || r[0].ItemID != 8 {
			t.Errorf("caller %d got %v", i, r)
		}
	}
}

func TestCachedService_BrokenCacheFallsThrough(t *testing.T) {
	next := &countingQuerier{}
	c, _ := NewCachedService(next, brokenStore{}, time.Minute)

	got, err := c.GetRecommendationsForUser(context.Background(), 3, 10)
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if len(got) != 1 || got[0].ItemID != 103 {
		t.Errorf("got %v", got)
	}
}
