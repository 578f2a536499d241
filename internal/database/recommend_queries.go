// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/eventsim/internal/database/query"
	"github.com/tomtom215/eventsim/internal/metrics"
	"github.com/tomtom215/eventsim/internal/recommend"
)

// RecentItems returns up to limit item ids the user interacted with, most
// recent first.
func (db *DB) RecentItems(ctx context.Context, userID int64, limit int) ([]int64, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQuery("recent_items", time.Since(start)) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT event_id FROM interactions WHERE user_id = ? ORDER BY ts DESC, event_id ASC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent items: %w", err)
	}
	defer rows.Close()

	var items []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan recent item: %w", err)
		}
		items = append(items, id)
	}
	return items, rows.Err()
}

// PairsTouching returns similarity pairs with either endpoint in itemIDs,
// highest score first. limit <= 0 returns every match.
func (db *DB) PairsTouching(ctx context.Context, itemIDs []int64, limit int) ([]recommend.SimilarityPair, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	start := time.Now()
	defer func() { metrics.RecordStoreQuery("pairs_touching", time.Since(start)) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := query.NewWhereBuilder().
		AnyIn([]string{"event1", "event2"}, itemIDs).
		BuildWithPrefix()
	sqlText := `SELECT event1, event2, similarity, ts FROM similarities ` + where +
		` ORDER BY similarity DESC, event1 ASC, event2 ASC`
	if limit > 0 {
		sqlText += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("query similarity pairs: %w", err)
	}
	defer rows.Close()

	var pairs []recommend.SimilarityPair
	for rows.Next() {
		var p recommend.SimilarityPair
		if err := rows.Scan(&p.ItemA, &p.ItemB, &p.Score, &p.Timestamp); err != nil {
			return nil, fmt.Errorf("scan similarity pair: %w", err)
		}
		p.Timestamp = p.Timestamp.UTC()
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// InteractedItems returns the subset of itemIDs the user has interacted with.
func (db *DB) InteractedItems(ctx context.Context, userID int64, itemIDs []int64) ([]int64, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	start := time.Now()
	defer func() { metrics.RecordStoreQuery("interacted_items", time.Since(start)) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := query.NewWhereBuilder().
		AddClause("user_id = ?", userID).
		AddIn("event_id", itemIDs).
		BuildWithPrefix()
	rows, err := db.conn.QueryContext(ctx, `SELECT event_id FROM interactions `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query interacted items: %w", err)
	}
	defer rows.Close()

	var items []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan interacted item: %w", err)
		}
		items = append(items, id)
	}
	return items, rows.Err()
}

// RatingSums returns the sum of stored ratings per item. Items without
// interactions are absent from the map.
func (db *DB) RatingSums(ctx context.Context, itemIDs []int64) (map[int64]float64, error) {
	sums := make(map[int64]float64)
	if len(itemIDs) == 0 {
		return sums, nil
	}
	start := time.Now()
	defer func() { metrics.RecordStoreQuery("rating_sums", time.Since(start)) }()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := query.NewWhereBuilder().AddIn("event_id", itemIDs).BuildWithPrefix()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT event_id, SUM(rating) FROM interactions `+where+` GROUP BY event_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query rating sums: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  int64
			sum float64
		)
		if err := rows.Scan(&id, &sum); err != nil {
			return nil, fmt.Errorf("scan rating sum: %w", err)
		}
		sums[id] = sum
	}
	return sums, rows.Err()
}
