// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package database

import (
	"context"
	"fmt"
	"time"
)

const (
	tableInteractions = "interactions"
	tableSimilarities = "similarities"
)

// schemaContext bounds DDL statements.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

var tableDefinitions = []struct {
	name string
	ddl  string
}{
	{
		name: tableInteractions,
		ddl: `CREATE TABLE IF NOT EXISTS interactions (
			user_id BIGINT NOT NULL,
			event_id BIGINT NOT NULL,
			rating DOUBLE NOT NULL,
			ts TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, event_id)
		)`,
	},
	{
		name: tableSimilarities,
		ddl: `CREATE TABLE IF NOT EXISTS similarities (
			event1 BIGINT NOT NULL,
			event2 BIGINT NOT NULL,
			similarity DOUBLE NOT NULL,
			ts TIMESTAMP NOT NULL,
			PRIMARY KEY (event1, event2),
			CHECK (event1 < event2)
		)`,
	},
}

// createTables creates the store tables if they do not exist.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, table := range tableDefinitions {
		if _, err := db.conn.ExecContext(ctx, table.ddl); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}
