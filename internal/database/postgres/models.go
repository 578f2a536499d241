// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package postgres

import (
	"time"

	"github.com/tomtom215/eventsim/internal/recommend"
)

type interactionRow struct {
	UserID  int64     `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	EventID int64     `gorm:"column:event_id;primaryKey;autoIncrement:false;index:idx_interactions_event"`
	Rating  float64   `gorm:"column:rating;not null"`
	TS      time.Time `gorm:"column:ts;not null"`
}

func (interactionRow) TableName() string {
	return "interactions"
}

func (r interactionRow) toInteraction() recommend.Interaction {
	return recommend.Interaction{UserID: r.UserID, ItemID: r.EventID, Rating: r.Rating, Timestamp: r.TS.UTC()}
}

type similarityRow struct {
	Event1     int64     `gorm:"column:event1;primaryKey;autoIncrement:false;check:chk_similarities_order,event1 < event2"`
	Event2     int64     `gorm:"column:event2;primaryKey;autoIncrement:false;index:idx_similarities_event2"`
	Similarity float64   `gorm:"column:similarity;not null"`
	TS         time.Time `gorm:"column:ts;not null"`
}

func (similarityRow) TableName() string {
	return "similarities"
}

func (r similarityRow) toPair() recommend.SimilarityPair {
	return recommend.SimilarityPair{ItemA: r.Event1, ItemB: r.Event2, Score: r.Similarity, Timestamp: r.TS.UTC()}
}
