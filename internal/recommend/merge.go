// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package recommend

// MergeInteraction applies the stored-record rule for interactions: the
// rating only rises, and a higher or equal rating moves the timestamp forward
// but never back. A lower rating changes nothing.
func MergeInteraction(stored, incoming Interaction) Interaction {
	if incoming.Rating < stored.Rating {
		return stored
	}
	stored.Rating = incoming.Rating
	if incoming.Timestamp.After(stored.Timestamp) {
		stored.Timestamp = incoming.Timestamp
	}
	return stored
}

// CollapseInteractions merges rows sharing a (user, item) key with
// MergeInteraction. Output keeps first-seen key order.
func CollapseInteractions(rows []Interaction) []Interaction {
	type key struct{ user, item int64 }
	index := make(map[key]int, len(rows))
	out := make([]Interaction, 0, len(rows))
	for _, r := range rows {
		k := key{r.UserID, r.ItemID}
		if i, ok := index[k]; ok {
			out[i] = MergeInteraction(out[i], r)
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}

// CollapseSimilarities keeps the last row per pair, matching log order
// overwrite semantics. Output keeps first-seen key order.
func CollapseSimilarities(rows []SimilarityPair) []SimilarityPair {
	index := make(map[ItemPair]int, len(rows))
	out := make([]SimilarityPair, 0, len(rows))
	for _, r := range rows {
		if i, ok := index[r.Pair()]; ok {
			out[i] = r
			continue
		}
		index[r.Pair()] = len(out)
		out = append(out, r)
	}
	return out
}
