// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/eventsim/internal/config"
)

// testDBSemaphore serializes DuckDB test databases. Concurrent CGO calls
// from many parallel tests can hang under CI resource pressure, so the slot
// is held for the whole test and released by t.Cleanup.
var testDBSemaphore = make(chan struct{}, 1)

// setupTestDB creates an in-memory database, failing after 60 seconds.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	return openTestDB(t, ":memory:")
}

func openTestDB(t *testing.T, path string) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	cfg := &config.DatabaseConfig{
		Driver:    "duckdb",
		Path:      path,
		MaxMemory: "512MB",
		Threads:   2,
	}

	type result struct {
		db  *DB
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		db, err := New(cfg)
		resultCh <- result{db: db, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			t.Fatalf("New() error = %v", res.err)
		}
		t.Cleanup(func() {
			if err := res.db.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
		return res.db
	case <-time.After(60 * time.Second):
		t.Fatal("database creation timed out")
		return nil
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New(nil) error = nil")
	}
	if _, err := New(&config.DatabaseConfig{Driver: "duckdb"}); err == nil {
		t.Error("New() without path error = nil")
	}
}

func TestConnString(t *testing.T) {
	got := connString(&config.DatabaseConfig{Path: "/data/x.duckdb", Threads: 4, MaxMemory: "2GB"})
	want := "/data/x.duckdb?access_mode=read_write&threads=4&autoinstall_known_extensions=false&autoload_known_extensions=false&max_memory=2GB"
	if got != want {
		t.Errorf("connString() = %q, want %q", got, want)
	}
}

func TestDB_PingAndMigrations(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	applied, err := db.AppliedMigrations(ctx)
	if err != nil {
		t.Fatalf("AppliedMigrations() error = %v", err)
	}
	if len(applied) != len(migrations) {
		t.Errorf("applied %d migrations, want %d", len(applied), len(migrations))
	}

	// running again applies nothing new
	if err := db.runVersionedMigrations(); err != nil {
		t.Fatalf("re-run migrations error = %v", err)
	}
	again, _ := db.AppliedMigrations(ctx)
	if len(again) != len(applied) {
		t.Errorf("re-run changed migration count to %d", len(again))
	}
}

func TestDB_ReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store", "eventsim.duckdb")
	ts := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	func() {
		cfg := &config.DatabaseConfig{Driver: "duckdb", Path: path, Threads: 1}
		db, err := New(cfg)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		defer db.Close()
		if err := db.UpsertInteractions(context.Background(), interactions(ts, row{1, 1, 1.0, 0})); err != nil {
			t.Fatal(err)
		}
	}()

	db := openTestDB(t, path)
	n, _, err := db.RecordCounts(context.Background())
	if err != nil {
		t.Fatalf("RecordCounts() error = %v", err)
	}
	if n != 1 {
		t.Errorf("interactions after reopen = %d, want 1", n)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		msg        string
		conn       bool
		conflict   bool
		internalEr bool
	}{
		{"sql: database is closed", true, false, false},
		{"dial tcp: connection refused", true, false, false},
		{"TransactionContext Error: Transaction conflict: cannot update", false, true, false},
		{"INTERNAL Error: Failed to bind", false, false, true},
		{"Binder Error: column not found", false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := errorString(tt.msg)
			if got := IsConnectionError(err); got != tt.conn {
				t.Errorf("IsConnectionError() = %v, want %v", got, tt.conn)
			}
			if got := isTransactionConflict(err); got != tt.conflict {
				t.Errorf("isTransactionConflict() = %v, want %v", got, tt.conflict)
			}
			if got := isInternalError(err); got != tt.internalEr {
				t.Errorf("isInternalError() = %v, want %v", got, tt.internalEr)
			}
		})
	}
	if IsConnectionError(nil) || isTransactionConflict(nil) || isInternalError(nil) {
		t.Error("nil error classified as failure")
	}
}

type errorString string

func (e errorString) Error() string { return string(e) }
