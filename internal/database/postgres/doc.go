// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

// Package postgres is the gorm-backed Postgres implementation of the
// interaction and similarity stores, selected with database.driver=postgres.
//
// It exposes the same operations as the DuckDB store: batch upserts for the
// store writers and the four read paths used by the query service. The
// schema is created with AutoMigrate from the row models, including the
// event1 < event2 CHECK constraint on similarities.
package postgres
