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

const upsertSimilaritySQL = `INSERT INTO similarities (event1, event2, similarity, ts)
VALUES (?, ?, ?, ?)
ON CONFLICT (event1, event2) DO UPDATE SET
	similarity = EXCLUDED.similarity,
	ts = EXCLUDED.ts`

// UpsertSimilarities overwrites the score of every pair in the batch in one
// transaction. Rows must be canonical (ItemA < ItemB); the table CHECK
// rejects anything else.
func (db *DB) UpsertSimilarities(ctx context.Context, rows []recommend.SimilarityPair) (err error) {
	if len(rows) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { metrics.RecordUpsert(tableSimilarities, time.Since(start), err) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows = recommend.CollapseSimilarities(rows)
	return db.inTxWithRetry(ctx, tableSimilarities, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertSimilaritySQL)
		if err != nil {
			return fmt.Errorf("prepare similarity upsert: %w", err)
		}
		defer closeWithLog(stmt, "prepared statement")

		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, r.ItemA, r.ItemB, r.Score, r.Timestamp.UTC()); err != nil {
				return fmt.Errorf("upsert similarity (%d,%d): %w", r.ItemA, r.ItemB, err)
			}
		}
		return nil
	})
}

// GetSimilarity returns the stored record for the canonical pair of a, b.
func (db *DB) GetSimilarity(ctx context.Context, a, b int64) (*recommend.SimilarityPair, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	p := recommend.Canonical(a, b)
	r := recommend.SimilarityPair{ItemA: p.A, ItemB: p.B}
	err := db.conn.QueryRowContext(ctx,
		`SELECT similarity, ts FROM similarities WHERE event1 = ? AND event2 = ?`,
		p.A, p.B,
	).Scan(&r.Score, &r.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get similarity (%d,%d): %w", p.A, p.B, err)
	}
	r.Timestamp = r.Timestamp.UTC()
	return &r, nil
}
