// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package recommend

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/eventsim/internal/validation"
)

// ActionKind is the closed set of user actions on an item.
type ActionKind uint8

const (
	// ActionView is a page view of the item.
	ActionView ActionKind = iota + 1
	// ActionRegister is a registration (participation request) for the item.
	ActionRegister
	// ActionLike is an explicit like.
	ActionLike
)

// ActionKinds lists every valid kind in ascending weight order.
var ActionKinds = []ActionKind{ActionView, ActionRegister, ActionLike}

// String returns the wire name of the action.
func (k ActionKind) String() string {
	switch k {
	case ActionView:
		return "VIEW"
	case ActionRegister:
		return "REGISTER"
	case ActionLike:
		return "LIKE"
	default:
		return "UNKNOWN"
	}
}

// Weight returns the fixed weight of the action, 0 for invalid kinds.
func (k ActionKind) Weight() float64 {
	switch k {
	case ActionView:
		return 0.4
	case ActionRegister:
		return 0.8
	case ActionLike:
		return 1.0
	default:
		return 0
	}
}

// Valid reports whether k is one of the defined kinds.
func (k ActionKind) Valid() bool {
	return k.Weight() > 0
}

// ParseActionKind parses a wire name, case-insensitively.
func ParseActionKind(s string) (ActionKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "VIEW":
		return ActionView, nil
	case "REGISTER":
		return ActionRegister, nil
	case "LIKE":
		return ActionLike, nil
	default:
		return 0, fmt.Errorf("%w: action %q", ErrInvalidArgument, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ActionKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: action kind %d", ErrInvalidArgument, uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ActionKind) UnmarshalText(b []byte) error {
	parsed, err := ParseActionKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// InteractionEvent is one user action, as carried on the interaction log.
type InteractionEvent struct {
	UserID    int64      `json:"user_id" validate:"gt=0"`
	ItemID    int64      `json:"item_id" validate:"gt=0"`
	Action    ActionKind `json:"action" validate:"required"`
	Timestamp time.Time  `json:"timestamp" validate:"required"`
}

// Validate rejects events that cannot be applied.
func (e *InteractionEvent) Validate() error {
	if err := validation.ValidateStruct(e); err != nil {
		return err
	}
	if !e.Action.Valid() {
		return fmt.Errorf("%w: action kind %d", ErrInvalidArgument, uint8(e.Action))
	}
	return nil
}

// ItemPair is an unordered pair of item ids stored with A < B.
type ItemPair struct {
	A int64
	B int64
}

// Canonical returns the pair {x, y} ordered so that A < B.
func Canonical(x, y int64) ItemPair {
	if x > y {
		return ItemPair{A: y, B: x}
	}
	return ItemPair{A: x, B: y}
}

// Contains reports whether id is one of the endpoints.
func (p ItemPair) Contains(id int64) bool {
	return p.A == id || p.B == id
}

// Other returns the endpoint that is not id. When id is on neither side the
// endpoint that differs from id is B.
func (p ItemPair) Other(id int64) int64 {
	if p.B == id {
		return p.A
	}
	return p.B
}

// SimilarityUpdate is emitted on the similarity log whenever a pair's score
// changes.
type SimilarityUpdate struct {
	ItemA     int64     `json:"item_a" validate:"gt=0"`
	ItemB     int64     `json:"item_b" validate:"gtfield=ItemA"`
	Score     float64   `json:"score" validate:"gte=0,lte=1"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

// Validate rejects non-canonical pairs and out of range scores.
func (u *SimilarityUpdate) Validate() error {
	return validation.ValidateStruct(u)
}

// Pair returns the canonical item pair of the update.
func (u SimilarityUpdate) Pair() ItemPair {
	return ItemPair{A: u.ItemA, B: u.ItemB}
}

// Interaction is the durable per (user, item) record.
type Interaction struct {
	UserID    int64     `json:"user_id"`
	ItemID    int64     `json:"item_id"`
	Rating    float64   `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}

// InteractionFromEvent maps an event to the record it upserts.
func InteractionFromEvent(e InteractionEvent) Interaction {
	return Interaction{
		UserID:    e.UserID,
		ItemID:    e.ItemID,
		Rating:    e.Action.Weight(),
		Timestamp: e.Timestamp.UTC(),
	}
}

// SimilarityPair is the durable per pair record.
type SimilarityPair struct {
	ItemA     int64     `json:"item_a"`
	ItemB     int64     `json:"item_b"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// Pair returns the canonical item pair of the record.
func (p SimilarityPair) Pair() ItemPair {
	return ItemPair{A: p.ItemA, B: p.ItemB}
}

// SimilarityPairFromUpdate maps an update to the record it overwrites.
func SimilarityPairFromUpdate(u SimilarityUpdate) SimilarityPair {
	return SimilarityPair{
		ItemA:     u.ItemA,
		ItemB:     u.ItemB,
		Score:     u.Score,
		Timestamp: u.Timestamp.UTC(),
	}
}

// ScoredItem is one query result row.
type ScoredItem struct {
	ItemID int64   `json:"item_id"`
	Score  float64 `json:"score"`
}
