// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

// Package similarity maintains the incremental item-item similarity model.
//
// For every item the state keeps each user's high-water-mark weight, the sum
// of those weights (ItemWeightSum) and, for every pair of items sharing a
// user, the sum of the per-user minimum weight (PairMinWeightSum). The score
// of a pair is
//
//	PairMinWeightSum(A,B) / (sqrt(ItemWeightSum(A)) * sqrt(ItemWeightSum(B)))
//
// State is not safe for concurrent use. It is owned by exactly one goroutine
// (the aggregator's apply stage) and every other component sees it only
// through the updates and deltas that goroutine hands out.
package similarity
