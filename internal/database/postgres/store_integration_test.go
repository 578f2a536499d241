// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

//go:build integration

package postgres

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/eventsim/internal/config"
	"github.com/tomtom215/eventsim/internal/recommend"
	"github.com/tomtom215/eventsim/internal/testinfra"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	pg, err := testinfra.NewPostgresContainer(ctx)
	if err != nil {
		t.Fatalf("NewPostgresContainer() error = %v", err)
	}
	t.Cleanup(func() { testinfra.CleanupContainer(t, context.Background(), pg) })

	var store *Store
	err = testinfra.WaitForReady(ctx, func(ctx context.Context) error {
		s, err := New(&config.DatabaseConfig{Driver: "postgres", DSN: pg.DSN, MaxOpenConns: 4})
		if err != nil {
			return err
		}
		store = s
		return nil
	}, 30*time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_Postgres(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	t.Run("interaction rules", func(t *testing.T) {
		batches := [][]recommend.Interaction{
			{{UserID: 1, ItemID: 1, Rating: 0.4, Timestamp: base.Add(time.Hour)}},
			{{UserID: 1, ItemID: 1, Rating: 0.8, Timestamp: base}},
			{{UserID: 1, ItemID: 1, Rating: 0.4, Timestamp: base.Add(2 * time.Hour)}},
			{{UserID: 1, ItemID: 1, Rating: 0.8, Timestamp: base.Add(time.Minute)}, {UserID: 1, ItemID: 2, Rating: 0.4, Timestamp: base}},
		}
		for _, b := range batches {
			if err := store.UpsertInteractions(ctx, b); err != nil {
				t.Fatalf("UpsertInteractions() error = %v", err)
			}
		}
		got, err := store.GetInteraction(ctx, 1, 1)
		if err != nil || got == nil {
			t.Fatalf("GetInteraction() = %v, %v", got, err)
		}
		// the out-of-order 0.8 raises the rating but keeps the +1h timestamp
		if got.Rating != 0.8 || !got.Timestamp.Equal(base.Add(time.Hour)) {
			t.Errorf("GetInteraction() = %+v, want rating 0.8 at +1h", got)
		}
	})

	t.Run("rating sums", func(t *testing.T) {
		sums, err := store.RatingSums(ctx, []int64{1, 2, 3})
		if err != nil {
			t.Fatal(err)
		}
		if want := map[int64]float64{1: 0.8, 2: 0.4}; !reflect.DeepEqual(sums, want) {
			t.Errorf("RatingSums() = %v, want %v", sums, want)
		}
	})

	t.Run("similarities", func(t *testing.T) {
		err := store.UpsertSimilarities(ctx, []recommend.SimilarityPair{
			{ItemA: 1, ItemB: 2, Score: 0.9, Timestamp: base},
			{ItemA: 2, ItemB: 3, Score: 0.5, Timestamp: base},
			{ItemA: 1, ItemB: 2, Score: 0.3, Timestamp: base.Add(time.Second)},
		})
		if err != nil {
			t.Fatalf("UpsertSimilarities() error = %v", err)
		}
		pairs, err := store.PairsTouching(ctx, []int64{2}, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(pairs) != 2 || pairs[0].Score != 0.5 || pairs[1].Score != 0.3 {
			t.Errorf("PairsTouching(2) = %+v", pairs)
		}

		bad := store.UpsertSimilarities(ctx, []recommend.SimilarityPair{{ItemA: 3, ItemB: 1, Score: 0.1, Timestamp: base}})
		if bad == nil {
			t.Error("non-canonical pair accepted")
		}
	})

	t.Run("reads", func(t *testing.T) {
		recent, err := store.RecentItems(ctx, 1, 1)
		if err != nil || !reflect.DeepEqual(recent, []int64{1}) {
			t.Errorf("RecentItems() = %v, %v", recent, err)
		}
		seen, err := store.InteractedItems(ctx, 1, []int64{2, 3})
		if err != nil || !reflect.DeepEqual(seen, []int64{2}) {
			t.Errorf("InteractedItems() = %v, %v", seen, err)
		}
	})
}
