// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

// Package recommend defines the domain vocabulary shared by the similarity
// pipeline and the query service: action kinds and their weights, the
// interaction events read from the interaction log, the similarity updates
// written to the similarity log, and the records persisted in the stores.
//
// Subpackages:
//   - similarity: incremental item-item similarity state (single owner)
//   - query: the three read operations served to the domain services
//
// # Weights
//
// Every action maps to a fixed weight through ActionKind.Weight:
//
//	VIEW     0.4
//	REGISTER 0.8
//	LIKE     1.0
//
// A user's weight on an item only ever increases (high-water mark), which is
// what makes at-least-once redelivery safe throughout the pipeline.
package recommend
