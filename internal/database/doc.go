// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

// Package database is the DuckDB implementation of the interaction and
// similarity stores.
//
// # Overview
//
// Two tables back the recommendation pipeline:
//
//   - interactions(user_id, event_id, rating, ts): one row per (user, item)
//     holding the highest rating seen and the timestamp that produced it
//   - similarities(event1, event2, similarity, ts): one row per unordered
//     item pair with event1 < event2, holding the latest score
//
// The store writers call UpsertInteractions and UpsertSimilarities once per
// consumed batch. Both are idempotent, so a redelivered batch converges to
// the same rows. The query service reads through RecentItems, PairsTouching,
// InteractedItems and RatingSums.
//
// # File Organization
//
//   - database.go: lifecycle (open, ping, close)
//   - database_schema.go: table definitions
//   - migrations.go: versioned migrations tracked in schema_migrations
//   - database_connection.go: pool configuration and error classification
//   - database_utils.go: context defaults, CHECKPOINT, row counts
//   - crud_interactions.go, crud_similarities.go: batch upserts
//   - recommend_queries.go: read paths for the query service
//
// # Concurrency
//
// Upserts on a table are serialized by a per-table lock and retried on
// DuckDB transaction conflicts. Reads run concurrently through the
// database/sql pool.
//
// # Usage
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	err = db.UpsertInteractions(ctx, rows)
//	sums, err := db.RatingSums(ctx, []int64{1, 2})
package database
