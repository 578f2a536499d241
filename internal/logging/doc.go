// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

// Package logging provides the zerolog-based structured logger shared by every
// EventSim component.
//
// The package exposes a process-wide logger configured once at startup and a
// handful of adapters so that third-party libraries log through the same sink:
//
//   - SlogHandler backs the slog.Logger consumed by sutureslog
//   - WatermillAdapter implements watermill.LoggerAdapter for the NATS publisher
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Int64("item_id", id).Msg("Similarity updated")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Query failed")
//
// Always terminate event chains with Msg or Send, otherwise nothing is written.
package logging
