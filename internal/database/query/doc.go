// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

// Package query provides SQL WHERE clause construction for the store
// packages.
//
// WhereBuilder collects parameterized conditions and joins them with AND:
//
//	wb := query.NewWhereBuilder()
//	wb.AddClause("user_id = ?", userID)
//	wb.AddIn("event_id", itemIDs)
//	where, args := wb.Build()
//	// "user_id = ? AND event_id IN (?, ?, ?)"
//
// AnyIn produces a single OR group across several columns, used for pair
// lookups where an item may appear on either side:
//
//	wb.AnyIn([]string{"event1", "event2"}, itemIDs)
//	// "(event1 IN (?, ?) OR event2 IN (?, ?))"
//
// Placeholders are always "?"; the Postgres store rebinds them through gorm.
package query
