// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

/*
Package query answers recommendation queries from the interaction and
similarity tables.

Service implements the three read operations directly on a Store (DuckDB or
Postgres). CachedService wraps any Querier with a TTL-bounded result cache
and coalesces concurrent identical queries with singleflight.

Errors:
  - recommend.ErrInvalidArgument for non-positive ids or maxResults
  - recommend.ErrStoreUnavailable wrapping the store error otherwise
*/
package query
