// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package eventprocessor

import "strconv"

// Stream and subject names.
const (
	InteractionsStream        = "INTERACTIONS"
	InteractionsSubjectPrefix = "interactions"
	SimilaritiesStream        = "SIMILARITIES"
	SimilaritiesSubject       = "similarities.updates"
)

// Partition maps an item id onto [0, partitions).
func Partition(itemID int64, partitions int) int {
	if partitions <= 1 {
		return 0
	}
	p := itemID % int64(partitions)
	if p < 0 {
		p += int64(partitions)
	}
	return int(p)
}

// InteractionSubject returns the subject carrying events for itemID.
func InteractionSubject(itemID int64, partitions int) string {
	return InteractionsSubjectPrefix + "." + strconv.Itoa(Partition(itemID, partitions))
}
