// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package wal

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/tomtom215/eventsim/internal/recommend"
	"github.com/tomtom215/eventsim/internal/recommend/similarity"
)

var t0 = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func openTestCheckpoint(t *testing.T) *Checkpoint {
	t.Helper()
	c, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func apply(s *similarity.State, user, item int64, kind recommend.ActionKind) {
	s.Apply(recommend.InteractionEvent{UserID: user, ItemID: item, Action: kind, Timestamp: t0})
}

func TestCheckpoint_SaveLoadRestore(t *testing.T) {
	c := openTestCheckpoint(t)
	ctx := context.Background()

	src := similarity.New()
	apply(src, 1, 10, recommend.ActionView)
	apply(src, 1, 10, recommend.ActionLike)
	apply(src, 1, 20, recommend.ActionView)
	if err := c.Save(ctx, src.TakeDelta()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	apply(src, 2, 20, recommend.ActionLike)
	apply(src, 2, 30, recommend.ActionRegister)
	if err := c.Save(ctx, src.TakeDelta()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	entries, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(entries) != 4 {
		t.Errorf("len(entries) = %d, want 4", len(entries))
	}

	dst := similarity.New()
	n, err := c.RestoreInto(ctx, dst)
	if err != nil {
		t.Fatalf("RestoreInto() error = %v", err)
	}
	if n != 4 {
		t.Errorf("restored %d weights, want 4", n)
	}

	pairs := [][2]int64{{10, 20}, {20, 30}, {10, 30}}
	for _, p := range pairs {
		if got, want := dst.Score(p[0], p[1]), src.Score(p[0], p[1]); math.Abs(got-want) > 1e-12 {
			t.Errorf("Score(%d,%d) = %v, want %v", p[0], p[1], got, want)
		}
	}
	w, ok := dst.UserItemWeight(1, 10)
	if !ok || w.Weight != 1.0 {
		t.Errorf("UserItemWeight(1,10) = %+v, %v; want weight 1.0", w, ok)
	}
	if !w.Timestamp.Equal(t0) {
		t.Errorf("timestamp = %v, want %v", w.Timestamp, t0)
	}
}

func TestCheckpoint_Stats(t *testing.T) {
	c := openTestCheckpoint(t)
	ctx := context.Background()

	s := similarity.New()
	apply(s, 1, 1, recommend.ActionView)
	apply(s, 1, 2, recommend.ActionView)
	if err := c.Save(ctx, s.TakeDelta()); err != nil {
		t.Fatal(err)
	}
	// overwrite of an existing key does not grow the count
	apply(s, 1, 2, recommend.ActionLike)
	if err := c.Save(ctx, s.TakeDelta()); err != nil {
		t.Fatal(err)
	}
	// empty delta still counts as a batch
	if err := c.Save(ctx, s.TakeDelta()); err != nil {
		t.Fatal(err)
	}

	st := c.Stats()
	if st.Weights != 2 {
		t.Errorf("Stats().Weights = %d, want 2", st.Weights)
	}
	if st.Batches != 3 {
		t.Errorf("Stats().Batches = %d, want 3", st.Batches)
	}
	if st.LastSavedAt.IsZero() {
		t.Error("Stats().LastSavedAt is zero")
	}
}

func TestCheckpoint_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.SyncWrites = false
	ctx := context.Background()

	c, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	s := similarity.New()
	apply(s, 7, 1, recommend.ActionRegister)
	apply(s, 7, 2, recommend.ActionRegister)
	if err := c.Save(ctx, s.TakeDelta()); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(cfg)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	if st := reopened.Stats(); st.Weights != 2 || st.Batches != 1 {
		t.Errorf("Stats() after reopen = %+v, want 2 weights and 1 batch", st)
	}
	restored := similarity.New()
	if _, err := reopened.RestoreInto(ctx, restored); err != nil {
		t.Fatal(err)
	}
	if got := restored.Score(1, 2); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("Score(1,2) = %v, want 1.0", got)
	}
}

func TestCheckpoint_Closed(t *testing.T) {
	c, err := OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v, want nil", err)
	}

	if err := c.Save(context.Background(), similarity.Delta{}); !errors.Is(err, ErrCheckpointClosed) {
		t.Errorf("Save() error = %v, want ErrCheckpointClosed", err)
	}
	if _, err := c.Load(context.Background()); !errors.Is(err, ErrCheckpointClosed) {
		t.Errorf("Load() error = %v, want ErrCheckpointClosed", err)
	}
}

func TestCheckpoint_SaveHonorsContext(t *testing.T) {
	c := openTestCheckpoint(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Save(ctx, similarity.Delta{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Save() error = %v, want context.Canceled", err)
	}
}

func TestWeightKey_RoundTrip(t *testing.T) {
	tests := []struct{ user, item int64 }{
		{1, 2},
		{0, 0},
		{math.MaxInt64, 1},
		{123456789, 987654321},
	}
	for _, tt := range tests {
		user, item, err := parseWeightKey(weightKey(tt.user, tt.item))
		if err != nil {
			t.Fatalf("parseWeightKey() error = %v", err)
		}
		if user != tt.user || item != tt.item {
			t.Errorf("round trip (%d,%d) = (%d,%d)", tt.user, tt.item, user, item)
		}
	}
	if _, _, err := parseWeightKey([]byte("w/short")); err == nil {
		t.Error("parseWeightKey(short) error = nil, want error")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"missing path", func(c *Config) { c.Path = "" }, true},
		{"in memory without path", func(c *Config) { c.Path = ""; c.InMemory = true }, false},
		{"tiny memtable", func(c *Config) { c.MemTableSize = 1024 }, true},
		{"one compactor", func(c *Config) { c.NumCompactors = 1 }, true},
		{"discard ratio out of range", func(c *Config) { c.GCDiscardRatio = 1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("/tmp/checkpoint")
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGCLoop_Lifecycle(t *testing.T) {
	c := openTestCheckpoint(t)
	g := NewGCLoop(c)

	if g.IsRunning() {
		t.Fatal("IsRunning() = true before Start")
	}
	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := g.Start(context.Background()); err != nil {
		t.Errorf("second Start() error = %v", err)
	}
	if !g.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	if err := g.RunNow(); err != nil {
		t.Errorf("RunNow() error = %v", err)
	}
	if g.Runs() != 1 {
		t.Errorf("Runs() = %d, want 1", g.Runs())
	}
	g.Stop()
	g.Stop()
	if g.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}
