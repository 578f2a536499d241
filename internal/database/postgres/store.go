// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tomtom215/eventsim/internal/config"
	"github.com/tomtom215/eventsim/internal/database/query"
	"github.com/tomtom215/eventsim/internal/logging"
	"github.com/tomtom215/eventsim/internal/metrics"
	"github.com/tomtom215/eventsim/internal/recommend"
)

// Store is the Postgres interaction and similarity store.
type Store struct {
	DB *gorm.DB
}

// New connects to Postgres, configures the pool and migrates the schema.
func New(cfg *config.DatabaseConfig) (*Store, error) {
	if cfg == nil || cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn required")
	}

	db, err := gorm.Open(pgdriver.Open(cfg.DSN), &gorm.Config{
		Logger:  newGormLogger(),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.AutoMigrate(&interactionRow{}, &similarityRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	logging.Info().Msg("Postgres store ready")
	return &Store{DB: db}, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UpsertInteractions applies a batch under the high-water rating rule in a
// single statement.
func (s *Store) UpsertInteractions(ctx context.Context, rows []recommend.Interaction) (err error) {
	if len(rows) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { metrics.RecordUpsert("interactions", time.Since(start), err) }()

	rows = recommend.CollapseInteractions(rows)
	models := make([]interactionRow, len(rows))
	for i, r := range rows {
		models[i] = interactionRow{UserID: r.UserID, EventID: r.ItemID, Rating: r.Rating, TS: r.Timestamp.UTC()}
	}

	err = s.DB.WithContext(ctx).Clauses(interactionConflict()).Create(&models).Error
	if err != nil {
		return fmt.Errorf("failed to upsert interactions: %w", err)
	}
	return nil
}

// UpsertSimilarities overwrites every pair in the batch.
func (s *Store) UpsertSimilarities(ctx context.Context, rows []recommend.SimilarityPair) (err error) {
	if len(rows) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { metrics.RecordUpsert("similarities", time.Since(start), err) }()

	rows = recommend.CollapseSimilarities(rows)
	models := make([]similarityRow, len(rows))
	for i, r := range rows {
		models[i] = similarityRow{Event1: r.ItemA, Event2: r.ItemB, Similarity: r.Score, TS: r.Timestamp.UTC()}
	}

	err = s.DB.WithContext(ctx).Clauses(similarityConflict()).Create(&models).Error
	if err != nil {
		return fmt.Errorf("failed to upsert similarities: %w", err)
	}
	return nil
}

// interactionConflict keeps the highest rating per (user, item); a higher or
// equal rating only moves the timestamp forward.
func interactionConflict() clause.OnConflict {
	return clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "event_id"}},
		DoUpdates: clause.Set{
			{Column: clause.Column{Name: "ts"}, Value: gorm.Expr(
				"CASE WHEN excluded.rating >= interactions.rating THEN GREATEST(interactions.ts, excluded.ts) " +
					"ELSE interactions.ts END")},
			{Column: clause.Column{Name: "rating"}, Value: gorm.Expr("GREATEST(interactions.rating, excluded.rating)")},
		},
	}
}

func similarityConflict() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "event1"}, {Name: "event2"}},
		DoUpdates: clause.AssignmentColumns([]string{"similarity", "ts"}),
	}
}

// GetInteraction returns the stored record, or nil when absent.
func (s *Store) GetInteraction(ctx context.Context, userID, itemID int64) (*recommend.Interaction, error) {
	var row interactionRow
	err := s.DB.WithContext(ctx).First(&row, "user_id = ? AND event_id = ?", userID, itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query interaction: %w", err)
	}
	r := row.toInteraction()
	return &r, nil
}

// RecentItems returns up to limit item ids, most recent first.
func (s *Store) RecentItems(ctx context.Context, userID int64, limit int) ([]int64, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQuery("recent_items", time.Since(start)) }()

	var ids []int64
	err := s.DB.WithContext(ctx).Model(&interactionRow{}).
		Where("user_id = ?", userID).
		Order("ts DESC, event_id ASC").
		Limit(limit).
		Pluck("event_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query recent items: %w", err)
	}
	return ids, nil
}

// PairsTouching returns pairs with either endpoint in itemIDs, highest score
// first. limit <= 0 returns every match.
func (s *Store) PairsTouching(ctx context.Context, itemIDs []int64, limit int) ([]recommend.SimilarityPair, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	start := time.Now()
	defer func() { metrics.RecordStoreQuery("pairs_touching", time.Since(start)) }()

	where, args := query.NewWhereBuilder().AnyIn([]string{"event1", "event2"}, itemIDs).Build()
	tx := s.DB.WithContext(ctx).Where(where, args...).Order("similarity DESC, event1 ASC, event2 ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var rows []similarityRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query similarity pairs: %w", err)
	}
	pairs := make([]recommend.SimilarityPair, len(rows))
	for i, r := range rows {
		pairs[i] = r.toPair()
	}
	return pairs, nil
}

// InteractedItems returns the subset of itemIDs the user interacted with.
func (s *Store) InteractedItems(ctx context.Context, userID int64, itemIDs []int64) ([]int64, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	start := time.Now()
	defer func() { metrics.RecordStoreQuery("interacted_items", time.Since(start)) }()

	where, args := query.NewWhereBuilder().
		AddClause("user_id = ?", userID).
		AddIn("event_id", itemIDs).
		Build()
	var ids []int64
	if err := s.DB.WithContext(ctx).Model(&interactionRow{}).Where(where, args...).Pluck("event_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to query interacted items: %w", err)
	}
	return ids, nil
}

// RatingSums returns the stored rating sum per item; items without rows are
// absent.
func (s *Store) RatingSums(ctx context.Context, itemIDs []int64) (map[int64]float64, error) {
	sums := make(map[int64]float64)
	if len(itemIDs) == 0 {
		return sums, nil
	}
	start := time.Now()
	defer func() { metrics.RecordStoreQuery("rating_sums", time.Since(start)) }()

	var rows []struct {
		EventID int64
		Total   float64
	}
	where, args := query.NewWhereBuilder().AddIn("event_id", itemIDs).Build()
	err := s.DB.WithContext(ctx).Model(&interactionRow{}).
		Select("event_id, SUM(rating) AS total").
		Where(where, args...).
		Group("event_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query rating sums: %w", err)
	}
	for _, r := range rows {
		sums[r.EventID] = r.Total
	}
	return sums, nil
}
