// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package similarity

import (
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/eventsim/internal/recommend"
)

// WeightEntry is one user-item weight in a Delta.
type WeightEntry struct {
	UserID    int64     `json:"user_id"`
	ItemID    int64     `json:"item_id"`
	Weight    float64   `json:"weight"`
	Timestamp time.Time `json:"timestamp"`
}

// Delta carries the current value of every user-item weight changed since the
// previous TakeDelta. Values are absolute, so persisting the same Delta twice
// (or only part of it) is harmless: the running sums are derived from the
// weights on Restore.
type Delta struct {
	Weights []WeightEntry `json:"weights"`
}

// Empty reports whether the delta carries no changes.
func (d *Delta) Empty() bool {
	return len(d.Weights) == 0
}

// TakeDelta returns the changes accumulated since the last call and resets
// change tracking. The returned Delta shares no memory with the State.
func (s *State) TakeDelta() Delta {
	d := Delta{Weights: make([]WeightEntry, 0, len(s.dirty))}
	for k := range s.dirty {
		w := s.weights[k.item][k.user]
		d.Weights = append(d.Weights, WeightEntry{
			UserID:    k.user,
			ItemID:    k.item,
			Weight:    w.Weight,
			Timestamp: w.Timestamp,
		})
	}
	s.dirty = make(map[userItem]struct{})
	return d
}

// Restore loads checkpointed weights into an empty state, rebuilding the
// adjacency index and every running sum. Later entries for the same user-item
// key win unless their weight is lower.
func (s *State) Restore(weights []WeightEntry) error {
	if len(s.weights) != 0 || len(s.userItems) != 0 {
		return fmt.Errorf("restore into non-empty state")
	}
	for _, w := range weights {
		if w.Weight <= 0 {
			return fmt.Errorf("restore: non-positive weight for user %d item %d", w.UserID, w.ItemID)
		}
		users := s.weights[w.ItemID]
		if users == nil {
			users = make(map[int64]UserWeight)
			s.weights[w.ItemID] = users
		}
		if cur, ok := users[w.UserID]; ok && cur.Weight > w.Weight {
			continue
		}
		users[w.UserID] = UserWeight{Weight: w.Weight, Timestamp: w.Timestamp.UTC()}

		items := s.userItems[w.UserID]
		if items == nil {
			items = make(map[int64]struct{})
			s.userItems[w.UserID] = items
		}
		items[w.ItemID] = struct{}{}
	}

	s.itemSums, s.pairSums = s.recompute()
	return nil
}

// recompute derives both running sums from the weights with a full scan.
func (s *State) recompute() (map[int64]float64, map[recommend.ItemPair]float64) {
	itemSums := make(map[int64]float64, len(s.weights))
	for item, users := range s.weights {
		for _, w := range users {
			itemSums[item] += w.Weight
		}
	}

	pairSums := make(map[recommend.ItemPair]float64)
	for user, items := range s.userItems {
		for a := range items {
			for b := range items {
				if a >= b {
					continue
				}
				wa := s.weights[a][user].Weight
				wb := s.weights[b][user].Weight
				pairSums[recommend.ItemPair{A: a, B: b}] += math.Min(wa, wb)
			}
		}
	}
	return itemSums, pairSums
}

// Verify recomputes every running sum from the weights and reports the first
// mismatch against the incrementally maintained values.
func (s *State) Verify() error {
	itemSums, pairSums := s.recompute()
	for item, want := range itemSums {
		if got := s.itemSums[item]; math.Abs(got-want) > 1e-6 {
			return fmt.Errorf("item %d: running sum %g, recomputed %g", item, got, want)
		}
	}
	for item, got := range s.itemSums {
		if _, ok := itemSums[item]; !ok && got > 1e-6 {
			return fmt.Errorf("item %d: running sum %g without weights", item, got)
		}
	}
	for p, got := range s.pairSums {
		if want := pairSums[p]; math.Abs(got-want) > 1e-6 {
			return fmt.Errorf("pair (%d,%d): running sum %g, recomputed %g", p.A, p.B, got, want)
		}
	}
	for p, want := range pairSums {
		if _, ok := s.pairSums[p]; !ok && want > 0 {
			return fmt.Errorf("pair (%d,%d): missing running sum, recomputed %g", p.A, p.B, want)
		}
	}
	return nil
}
