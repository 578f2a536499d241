// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package similarity

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/tomtom215/eventsim/internal/recommend"
)

// epsilon absorbs float drift in running sums.
const epsilon = 1e-9

// UserWeight is a user's high-water-mark weight on one item.
type UserWeight struct {
	Weight    float64
	Timestamp time.Time
}

// State is the in-memory similarity model.
type State struct {
	// item -> user -> weight
	weights map[int64]map[int64]UserWeight
	// user -> items the user has a weight on
	userItems map[int64]map[int64]struct{}
	itemSums  map[int64]float64
	pairSums  map[recommend.ItemPair]float64

	// user-item weights changed since the last TakeDelta
	dirty map[userItem]struct{}
}

type userItem struct {
	user int64
	item int64
}

// New returns an empty state.
func New() *State {
	return &State{
		weights:   make(map[int64]map[int64]UserWeight),
		userItems: make(map[int64]map[int64]struct{}),
		itemSums:  make(map[int64]float64),
		pairSums:  make(map[recommend.ItemPair]float64),
		dirty:     make(map[userItem]struct{}),
	}
}

// Apply folds one event into the state and returns an update for every pair
// whose PairMinWeightSum changed. Events whose weight does not exceed the
// user's current weight on the item change nothing (apart from advancing the
// stored timestamp on an equal weight) and emit nothing. A change that only
// moves an item's weight sum is not emitted, so stored scores can lag Score.
func (s *State) Apply(e recommend.InteractionEvent) []recommend.SimilarityUpdate {
	w := e.Action.Weight()
	ts := e.Timestamp.UTC()

	users := s.weights[e.ItemID]
	old, seen := users[e.UserID]
	oldW := old.Weight

	if w <= oldW {
		if seen && w == oldW && ts.After(old.Timestamp) {
			users[e.UserID] = UserWeight{Weight: oldW, Timestamp: ts}
			s.dirty[userItem{e.UserID, e.ItemID}] = struct{}{}
		}
		return nil
	}

	if users == nil {
		users = make(map[int64]UserWeight)
		s.weights[e.ItemID] = users
	}
	if old.Timestamp.After(ts) {
		ts = old.Timestamp
	}
	users[e.UserID] = UserWeight{Weight: w, Timestamp: ts}
	s.addItemSum(e.ItemID, w-oldW)
	s.dirty[userItem{e.UserID, e.ItemID}] = struct{}{}

	items := s.userItems[e.UserID]
	if items == nil {
		items = make(map[int64]struct{})
		s.userItems[e.UserID] = items
	}
	items[e.ItemID] = struct{}{}

	others := make([]int64, 0, len(items))
	for other := range items {
		if other != e.ItemID {
			others = append(others, other)
		}
	}
	slices.Sort(others)

	var updates []recommend.SimilarityUpdate
	for _, other := range others {
		otherW, ok := s.weights[other][e.UserID]
		if !ok {
			panic(fmt.Sprintf("similarity: user %d indexed on item %d without a weight", e.UserID, other))
		}
		oldMin := math.Min(oldW, otherW.Weight)
		newMin := math.Min(w, otherW.Weight)
		if oldMin == newMin {
			continue
		}

		pair := recommend.Canonical(e.ItemID, other)
		s.addPairSum(pair, newMin-oldMin)
		updates = append(updates, recommend.SimilarityUpdate{
			ItemA:     pair.A,
			ItemB:     pair.B,
			Score:     s.Score(pair.A, pair.B),
			Timestamp: e.Timestamp.UTC(),
		})
	}
	return updates
}

func (s *State) addItemSum(item int64, delta float64) {
	sum := s.itemSums[item] + delta
	if sum < -epsilon {
		panic(fmt.Sprintf("similarity: item %d weight sum went negative (%g)", item, sum))
	}
	s.itemSums[item] = math.Max(sum, 0)
}

func (s *State) addPairSum(pair recommend.ItemPair, delta float64) {
	sum := s.pairSums[pair] + delta
	if sum < -epsilon {
		panic(fmt.Sprintf("similarity: pair (%d,%d) min sum went negative (%g)", pair.A, pair.B, sum))
	}
	s.pairSums[pair] = math.Max(sum, 0)
}

// Score returns the similarity of a and b in [0,1]. Order does not matter.
func (s *State) Score(a, b int64) float64 {
	num := s.pairSums[recommend.Canonical(a, b)]
	if num <= 0 {
		return 0
	}
	sumA, sumB := s.itemSums[a], s.itemSums[b]
	if sumA <= 0 || sumB <= 0 {
		return 0
	}
	score := num / (math.Sqrt(sumA) * math.Sqrt(sumB))
	return math.Min(math.Max(score, 0), 1)
}

// UserItemWeight returns the user's current weight on item.
func (s *State) UserItemWeight(user, item int64) (UserWeight, bool) {
	w, ok := s.weights[item][user]
	return w, ok
}

// ItemWeightSum returns the sum of all users' weights on item.
func (s *State) ItemWeightSum(item int64) float64 {
	return s.itemSums[item]
}

// PairMinWeightSum returns the numerator of the pair's score.
func (s *State) PairMinWeightSum(a, b int64) float64 {
	return s.pairSums[recommend.Canonical(a, b)]
}

// UserItems returns the items the user has a weight on, ascending.
func (s *State) UserItems(user int64) []int64 {
	items := make([]int64, 0, len(s.userItems[user]))
	for item := range s.userItems[user] {
		items = append(items, item)
	}
	slices.Sort(items)
	return items
}

// Stats is a size summary of the state.
type Stats struct {
	Items int
	Users int
	Pairs int
}

// Stats returns the current sizes.
func (s *State) Stats() Stats {
	return Stats{Items: len(s.itemSums), Users: len(s.userItems), Pairs: len(s.pairSums)}
}
