// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package recommend

import "errors"

var (
	// ErrInvalidArgument marks input rejected at a boundary (bad action,
	// non-positive ids, out of range limits).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStoreUnavailable marks a failed read or write against a durable store.
	ErrStoreUnavailable = errors.New("store unavailable")
)
