// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package database

import (
	"context"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/tomtom215/eventsim/internal/recommend"
)

func seedQueries(t *testing.T, db *DB) time.Time {
	t.Helper()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	if err := db.UpsertInteractions(ctx, interactions(base,
		row{1, 10, 1.0, 3 * time.Minute},
		row{1, 11, 0.4, 2 * time.Minute},
		row{1, 12, 0.8, time.Minute},
		row{2, 10, 0.4, 0},
	)); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertSimilarities(ctx, []recommend.SimilarityPair{
		{ItemA: 10, ItemB: 20, Score: 0.9, Timestamp: base},
		{ItemA: 10, ItemB: 11, Score: 0.7, Timestamp: base},
		{ItemA: 11, ItemB: 30, Score: 0.5, Timestamp: base},
		{ItemA: 20, ItemB: 30, Score: 0.95, Timestamp: base},
		{ItemA: 12, ItemB: 40, Score: 0.5, Timestamp: base},
	}); err != nil {
		t.Fatal(err)
	}
	return base
}

func TestRecentItems(t *testing.T) {
	db := setupTestDB(t)
	seedQueries(t, db)
	ctx := context.Background()

	got, err := db.RecentItems(ctx, 1, 2)
	if err != nil {
		t.Fatalf("RecentItems() error = %v", err)
	}
	if want := []int64{10, 11}; !reflect.DeepEqual(got, want) {
		t.Errorf("RecentItems() = %v, want %v", got, want)
	}

	none, err := db.RecentItems(ctx, 99, 5)
	if err != nil || len(none) != 0 {
		t.Errorf("RecentItems(unknown) = %v, %v", none, err)
	}
}

func TestPairsTouching(t *testing.T) {
	db := setupTestDB(t)
	seedQueries(t, db)
	ctx := context.Background()

	all, err := db.PairsTouching(ctx, []int64{10, 11}, 0)
	if err != nil {
		t.Fatalf("PairsTouching() error = %v", err)
	}
	var scores []float64
	for _, p := range all {
		scores = append(scores, p.Score)
	}
	if want := []float64{0.9, 0.7, 0.5}; !reflect.DeepEqual(scores, want) {
		t.Errorf("scores = %v, want %v", scores, want)
	}

	limited, err := db.PairsTouching(ctx, []int64{10, 11}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].ItemB != 20 {
		t.Errorf("PairsTouching(limit 1) = %+v", limited)
	}

	// either side matches
	side, _ := db.PairsTouching(ctx, []int64{30}, 0)
	if len(side) != 2 || side[0].Score != 0.95 {
		t.Errorf("PairsTouching(30) = %+v", side)
	}

	empty, err := db.PairsTouching(ctx, nil, 5)
	if err != nil || empty != nil {
		t.Errorf("PairsTouching(nil) = %v, %v", empty, err)
	}
}

func TestInteractedItems(t *testing.T) {
	db := setupTestDB(t)
	seedQueries(t, db)

	got, err := db.InteractedItems(context.Background(), 1, []int64{10, 12, 20, 30})
	if err != nil {
		t.Fatalf("InteractedItems() error = %v", err)
	}
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	if want := []int64{10, 12}; !reflect.DeepEqual(got, want) {
		t.Errorf("InteractedItems() = %v, want %v", got, want)
	}
}

func TestRatingSums(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	// one LIKE on item 1 and one VIEW on item 2
	if err := db.UpsertInteractions(ctx, interactions(base,
		row{1, 1, recommend.ActionLike.Weight(), 0},
		row{1, 2, recommend.ActionView.Weight(), 0},
	)); err != nil {
		t.Fatal(err)
	}

	got, err := db.RatingSums(ctx, []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("RatingSums() error = %v", err)
	}
	want := map[int64]float64{1: 1.0, 2: 0.4}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RatingSums() = %v, want %v", got, want)
	}

	empty, err := db.RatingSums(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("RatingSums(nil) = %v, %v", empty, err)
	}
}

func TestRatingSums_AcrossUsers(t *testing.T) {
	db := setupTestDB(t)
	seedQueries(t, db)

	got, err := db.RatingSums(context.Background(), []int64{10})
	if err != nil {
		t.Fatal(err)
	}
	if sum := got[10]; sum < 1.3999 || sum > 1.4001 {
		t.Errorf("RatingSums()[10] = %v, want 1.4", sum)
	}
}
