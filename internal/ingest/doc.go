// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

// Package ingest turns raw user actions into interaction events and appends
// them to the interaction log. It backs POST /api/v1/interactions and the
// ingest CLI command.
package ingest
