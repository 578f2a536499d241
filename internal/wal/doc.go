// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

/*
Package wal persists the similarity aggregator's state to BadgerDB.

The aggregator keeps its model in memory. After every batch it publishes the
batch's similarity updates, writes the batch's changed user-item weights here,
and only then commits its position on the interaction log. On start it loads
every checkpointed weight and rebuilds item sums, pair sums and the per-user
adjacency index from them.

Only weights are stored. Because they are high-water marks and the sums are
derived on load, a checkpoint that was cut short by a crash is still consistent
with replaying the uncommitted batch: entries that made it to disk turn the
replayed events into no-ops, the rest are applied normally.

# Layout

	w/<user_id:8><item_id:8>  -> {"w": weight, "ts": timestamp}   (goccy/go-json)
	meta                      -> {"batches": n, "updated_at": ts}

Keys use big-endian integers so a prefix scan returns weights grouped by user.

# Maintenance

GCLoop periodically runs Badger's value log garbage collection. It is wrapped
as a suture service by the supervisor package.
*/
package wal
