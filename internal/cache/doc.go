// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

/*
Package cache provides the result caches used in front of the query service.

Two backends implement Store:

  - MemoryStore: an in-process LRU with per-entry TTL, bounded by entry count
  - RedisStore: a shared cache on Redis, for several query servers behind one
    load balancer

Values are opaque byte slices; callers own the encoding. Keys are namespaced
by the caller as well.

# Usage

	store := cache.NewMemoryStore("query", 10000)
	if err := store.Set(ctx, "similar:42:7:10", data, time.Minute); err != nil {
	    // caches never fail the caller; log and continue
	}
	if data, ok, err := store.Get(ctx, "similar:42:7:10"); err == nil && ok {
	    // use data
	}

# Thread Safety

Both stores are safe for concurrent use.

# Expiration

MemoryStore expires entries lazily on Get and in bulk through
CleanupExpired. Redis expires entries itself.
*/
package cache
