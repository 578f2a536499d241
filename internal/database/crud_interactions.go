// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/eventsim/internal/metrics"
	"github.com/tomtom215/eventsim/internal/recommend"
)

// upsertInteractionSQL keeps the highest rating per (user, item). A higher or
// equal rating only moves the timestamp forward; a lower one changes nothing.
// SET expressions read the pre-update row.
const upsertInteractionSQL = `INSERT INTO interactions (user_id, event_id, rating, ts)
VALUES (?, ?, ?, ?)
ON CONFLICT (user_id, event_id) DO UPDATE SET
	ts = CASE
		WHEN EXCLUDED.rating >= rating THEN GREATEST(ts, EXCLUDED.ts)
		ELSE ts
	END,
	rating = GREATEST(rating, EXCLUDED.rating)`

// UpsertInteractions applies a batch of interaction records in one
// transaction. Replaying a batch leaves the table unchanged.
func (db *DB) UpsertInteractions(ctx context.Context, rows []recommend.Interaction) (err error) {
	if len(rows) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { metrics.RecordUpsert(tableInteractions, time.Since(start), err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows = recommend.CollapseInteractions(rows)
	return db.inTxWithRetry(ctx, tableInteractions, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertInteractionSQL)
		if err != nil {
			return fmt.Errorf("prepare interaction upsert: %w", err)
		}
		defer closeWithLog(stmt, "prepared statement")

		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r.UserID, r.ItemID, r.Rating, r.Timestamp.UTC()); err != nil {
				return fmt.Errorf("upsert interaction (%d,%d): %w", r.UserID, r.ItemID, err)
			}
		}
		return nil
	})
}

// GetInteraction returns the stored record for (userID, itemID).
func (db *DB) GetInteraction(ctx context.Context, userID, itemID int64) (*recommend.Interaction, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	r := recommend.Interaction{UserID: userID, ItemID: itemID}
	err := db.conn.QueryRowContext(ctx,
		`SELECT rating, ts FROM interactions WHERE user_id = ? AND event_id = ?`,
		userID, itemID,
	).Scan(&r.Rating, &r.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get interaction (%d,%d): %w", userID, itemID, err)
	}
	r.Timestamp = r.Timestamp.UTC()
	return &r, nil
}
