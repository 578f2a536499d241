// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package similarity

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/tomtom215/eventsim/internal/recommend"
)

func TestTakeDelta_TracksChangesSinceLastCall(t *testing.T) {
	s := New()
	s.Apply(event(userU, 1, recommend.ActionView, 0))
	s.Apply(event(userU, 2, recommend.ActionLike, 0))

	d := s.TakeDelta()
	if len(d.Weights) != 2 {
		t.Errorf("len(Weights) = %d, want 2", len(d.Weights))
	}

	if d2 := s.TakeDelta(); !d2.Empty() {
		t.Errorf("second TakeDelta() = %+v, want empty", d2)
	}

	s.Apply(event(userU, 1, recommend.ActionView, time.Minute)) // timestamp only
	d3 := s.TakeDelta()
	if len(d3.Weights) != 1 {
		t.Fatalf("timestamp-only delta = %+v, want a single weight entry", d3)
	}
	if !d3.Weights[0].Timestamp.Equal(t0.Add(time.Minute)) {
		t.Errorf("delta timestamp = %v, want %v", d3.Weights[0].Timestamp, t0.Add(time.Minute))
	}

	s.Apply(event(userU, 1, recommend.ActionView, 0)) // stale duplicate
	if d4 := s.TakeDelta(); !d4.Empty() {
		t.Errorf("stale duplicate produced delta %+v", d4)
	}
}

func accumulate(src *State, r *rand.Rand, batches, perBatch int) []WeightEntry {
	var all []WeightEntry
	for b := 0; b < batches; b++ {
		for _, e := range randomEvents(r, perBatch) {
			src.Apply(e)
		}
		d := src.TakeDelta()
		all = append(all, d.Weights...)
	}
	return all
}

func TestRestore_RoundTripsThroughDeltas(t *testing.T) {
	src := New()
	weights := accumulate(src, rand.New(rand.NewSource(11)), 5, 200)

	dst := New()
	if err := dst.Restore(weights); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if err := dst.Verify(); err != nil {
		t.Fatalf("Verify() after restore = %v", err)
	}

	for a := int64(1); a <= 15; a++ {
		if got, want := dst.ItemWeightSum(a), src.ItemWeightSum(a); math.Abs(got-want) > 1e-9 {
			t.Errorf("ItemWeightSum(%d) = %v, want %v", a, got, want)
		}
		for b := a + 1; b <= 15; b++ {
			if got, want := dst.Score(a, b), src.Score(a, b); math.Abs(got-want) > 1e-9 {
				t.Errorf("Score(%d,%d) = %v, want %v", a, b, got, want)
			}
		}
	}

	// a restored state keeps applying incrementally
	e := event(999, 1, recommend.ActionLike, 0)
	dst.Apply(e)
	if err := dst.Verify(); err != nil {
		t.Errorf("Verify() after apply on restored state = %v", err)
	}
}

func TestRestore_PartialCheckpointThenReplay(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	committed := randomEvents(r, 300)
	inflight := randomEvents(r, 100)

	reference := New()
	for _, e := range committed {
		reference.Apply(e)
	}
	base := reference.TakeDelta()
	for _, e := range inflight {
		reference.Apply(e)
	}
	full := reference.TakeDelta()

	// only half of the in-flight batch reached the checkpoint before a crash
	partial := append(append([]WeightEntry{}, base.Weights...), full.Weights[:len(full.Weights)/2]...)

	recovered := New()
	if err := recovered.Restore(partial); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	for _, e := range inflight {
		recovered.Apply(e)
	}
	if err := recovered.Verify(); err != nil {
		t.Fatalf("Verify() = %v", err)
	}

	for a := int64(1); a <= 15; a++ {
		for b := a + 1; b <= 15; b++ {
			if got, want := recovered.Score(a, b), reference.Score(a, b); math.Abs(got-want) > 1e-9 {
				t.Errorf("Score(%d,%d) = %v, want %v", a, b, got, want)
			}
		}
	}
}

func TestRestore_KeepsHigherWeight(t *testing.T) {
	s := New()
	err := s.Restore([]WeightEntry{
		{UserID: 1, ItemID: 1, Weight: 1.0, Timestamp: t0},
		{UserID: 1, ItemID: 1, Weight: 0.4, Timestamp: t0.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	w, _ := s.UserItemWeight(1, 1)
	if w.Weight != 1.0 {
		t.Errorf("weight = %v, want 1.0", w.Weight)
	}
}

func TestRestore_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(*State)
		weights []WeightEntry
	}{
		{
			name:    "non-empty state",
			prepare: func(s *State) { s.Apply(event(userU, 1, recommend.ActionView, 0)) },
		},
		{
			name:    "non-positive weight",
			weights: []WeightEntry{{UserID: 1, ItemID: 1, Weight: 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			if tt.prepare != nil {
				tt.prepare(s)
			}
			if err := s.Restore(tt.weights); err == nil {
				t.Error("Restore() error = nil, want error")
			}
		})
	}
}

func TestVerify_DetectsDrift(t *testing.T) {
	s := New()
	s.Apply(event(userU, 1, recommend.ActionView, 0))
	s.Apply(event(userU, 2, recommend.ActionView, 0))

	s.itemSums[1] += 0.5
	if err := s.Verify(); err == nil {
		t.Error("Verify() = nil, want item sum mismatch")
	}
}

func TestApply_PanicsOnCorruptIndex(t *testing.T) {
	s := New()
	s.Apply(event(userU, 1, recommend.ActionView, 0))
	s.userItems[userU][42] = struct{}{}

	defer func() {
		if recover() == nil {
			t.Error("Apply() with an index entry lacking a weight should panic")
		}
	}()
	s.Apply(event(userU, 1, recommend.ActionLike, time.Minute))
}
