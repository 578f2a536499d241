// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

// Package writer persists the two logs into the stores.
//
// Writer is a generic poll, decode, upsert, commit loop. Two instances are
// wired by the supervisor:
//
//   - NewInteractionWriter: interaction log to the interactions table
//     (rating high-water upsert)
//   - NewSimilarityWriter: similarity log to the similarities table
//     (unconditional overwrite)
//
// Each batch is decoded, malformed records are logged and skipped, the rest
// are upserted with bounded retry, and the batch's last record is committed
// asynchronously. If the store stays unavailable through every retry the
// batch is left uncommitted, so the broker redelivers it, and Run returns an
// error wrapping ErrStoreExhausted for the supervisor to act on. On exit Run
// commits the last processed record synchronously.
package writer
