// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package wal

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/eventsim/internal/logging"
)

// GCLoop runs value log garbage collection on an interval.
type GCLoop struct {
	store    *Checkpoint
	interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
	lastRun time.Time
	runs    int64
}

// NewGCLoop creates a GC loop for store.
func NewGCLoop(store *Checkpoint) *GCLoop {
	interval := store.config.GCInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GCLoop{store: store, interval: interval}
}

// Start begins the background loop.
func (g *GCLoop) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return nil
	}
	ctx, g.cancel = context.WithCancel(ctx)
	g.running = true
	g.mu.Unlock()

	g.wg.Add(1)
	go g.run(ctx)

	logging.Info().Dur("interval", g.interval).Msg("Checkpoint GC started")
	return nil
}

// Stop stops the loop and waits for it to exit.
func (g *GCLoop) Stop() {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return
	}
	g.cancel()
	g.running = false
	g.mu.Unlock()

	g.wg.Wait()
	logging.Info().Msg("Checkpoint GC stopped")
}

// IsRunning reports whether the loop is active.
func (g *GCLoop) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// RunNow runs one collection synchronously.
func (g *GCLoop) RunNow() error {
	err := g.store.RunGC()
	g.mu.Lock()
	g.lastRun = time.Now()
	g.runs++
	g.mu.Unlock()
	return err
}

// Runs returns how many collections have completed.
func (g *GCLoop) Runs() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.runs
}

func (g *GCLoop) run(ctx context.Context) {
	defer g.wg.Done()

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := g.RunNow(); err != nil {
				logging.Error().Err(err).Msg("Checkpoint GC failed")
			}
		}
	}
}
