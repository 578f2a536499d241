// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package wal

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"

	"github.com/tomtom215/eventsim/internal/logging"
	"github.com/tomtom215/eventsim/internal/metrics"
	"github.com/tomtom215/eventsim/internal/recommend/similarity"
)

// ErrCheckpointClosed is returned by operations on a closed store.
var ErrCheckpointClosed = errors.New("checkpoint store is closed")

var (
	weightPrefix = []byte("w/")
	metaKey      = []byte("meta")
)

const weightKeyLen = 2 + 8 + 8

type weightRecord struct {
	Weight    float64   `json:"w"`
	Timestamp time.Time `json:"ts"`
}

type metaRecord struct {
	Batches   uint64    `json:"batches"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stats describes the checkpoint contents.
type Stats struct {
	Weights     int64     `json:"weights"`
	Batches     uint64    `json:"batches"`
	LastSavedAt time.Time `json:"last_saved_at"`
	LSMBytes    int64     `json:"lsm_bytes"`
	VLogBytes   int64     `json:"vlog_bytes"`
}

// Checkpoint is a BadgerDB-backed store of aggregator weights.
type Checkpoint struct {
	db     *badger.DB
	config Config

	mu     sync.RWMutex
	closed bool

	weights atomic.Int64
	meta    atomic.Pointer[metaRecord]
}

// Open opens (or creates) the checkpoint store.
func Open(cfg Config) (*Checkpoint, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid checkpoint config: %w", err)
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	opts.MemTableSize = cfg.MemTableSize
	opts.ValueLogFileSize = cfg.ValueLogFileSize
	opts.NumCompactors = cfg.NumCompactors
	if cfg.Compression {
		opts.Compression = options.Snappy
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	c := &Checkpoint{db: db, config: cfg}
	if err := c.loadMeta(); err != nil {
		_ = db.Close()
		return nil, err
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Bool("sync_writes", cfg.SyncWrites).
		Msg("Checkpoint store opened")
	return c, nil
}

// OpenInMemory opens an in-memory store with test-friendly sizes.
func OpenInMemory() (*Checkpoint, error) {
	cfg := DefaultConfig("")
	cfg.InMemory = true
	cfg.SyncWrites = false
	cfg.MemTableSize = 4 << 20
	cfg.ValueLogFileSize = 4 << 20
	return Open(cfg)
}

func (c *Checkpoint) loadMeta() error {
	meta := &metaRecord{}
	var count int64
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, meta)
			}); err != nil {
				return err
			}
		}

		it := txn.NewIterator(badger.IteratorOptions{Prefix: weightPrefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("read checkpoint metadata: %w", err)
	}
	c.meta.Store(meta)
	c.weights.Store(count)
	return nil
}

func (c *Checkpoint) checkNotClosed() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrCheckpointClosed
	}
	return nil
}

func weightKey(user, item int64) []byte {
	key := make([]byte, weightKeyLen)
	copy(key, weightPrefix)
	binary.BigEndian.PutUint64(key[2:10], uint64(user))
	binary.BigEndian.PutUint64(key[10:18], uint64(item))
	return key
}

func parseWeightKey(key []byte) (user, item int64, err error) {
	if len(key) != weightKeyLen {
		return 0, 0, fmt.Errorf("malformed weight key %x", key)
	}
	return int64(binary.BigEndian.Uint64(key[2:10])), int64(binary.BigEndian.Uint64(key[10:18])), nil
}

// Save persists the delta's weights and bumps the batch counter. Entries are
// flushed through a WriteBatch, so a large delta may land partially if the
// process dies mid-write.
func (c *Checkpoint) Save(ctx context.Context, d similarity.Delta) error {
	if err := c.checkNotClosed(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	err := c.save(d)
	metrics.RecordCheckpoint(time.Since(start), err)
	return err
}

func (c *Checkpoint) save(d similarity.Delta) error {
	var added int64
	if len(d.Weights) > 0 {
		// count keys that are new so Stats stays accurate without a rescan
		err := c.db.View(func(txn *badger.Txn) error {
			for _, w := range d.Weights {
				_, err := txn.Get(weightKey(w.UserID, w.ItemID))
				if errors.Is(err, badger.ErrKeyNotFound) {
					added++
					continue
				}
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("checkpoint lookup: %w", err)
		}

		wb := c.db.NewWriteBatch()
		defer wb.Cancel()
		for _, w := range d.Weights {
			val, err := json.Marshal(weightRecord{Weight: w.Weight, Timestamp: w.Timestamp.UTC()})
			if err != nil {
				return fmt.Errorf("marshal weight: %w", err)
			}
			if err := wb.Set(weightKey(w.UserID, w.ItemID), val); err != nil {
				return fmt.Errorf("checkpoint write: %w", err)
			}
		}
		if err := wb.Flush(); err != nil {
			return fmt.Errorf("checkpoint flush: %w", err)
		}
	}

	prev := c.meta.Load()
	meta := &metaRecord{Batches: prev.Batches + 1, UpdatedAt: time.Now().UTC()}
	val, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal checkpoint metadata: %w", err)
	}
	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(metaKey, val)
	}); err != nil {
		return fmt.Errorf("checkpoint metadata: %w", err)
	}

	c.meta.Store(meta)
	c.weights.Add(added)
	return nil
}

// Load returns every checkpointed weight.
func (c *Checkpoint) Load(ctx context.Context) ([]similarity.WeightEntry, error) {
	if err := c.checkNotClosed(); err != nil {
		return nil, err
	}

	var out []similarity.WeightEntry
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = weightPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			user, itemID, err := parseWeightKey(item.Key())
			if err != nil {
				return err
			}
			var rec weightRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode weight for user %d item %d: %w", user, itemID, err)
			}
			out = append(out, similarity.WeightEntry{
				UserID:    user,
				ItemID:    itemID,
				Weight:    rec.Weight,
				Timestamp: rec.Timestamp,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	return out, nil
}

// RestoreInto loads the checkpoint into an empty state and returns the number
// of weights restored.
func (c *Checkpoint) RestoreInto(ctx context.Context, s *similarity.State) (int, error) {
	entries, err := c.Load(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.Restore(entries); err != nil {
		return 0, fmt.Errorf("restore state: %w", err)
	}
	return len(entries), nil
}

// Stats returns counters and on-disk sizes.
func (c *Checkpoint) Stats() Stats {
	meta := c.meta.Load()
	st := Stats{
		Weights:     c.weights.Load(),
		Batches:     meta.Batches,
		LastSavedAt: meta.UpdatedAt,
	}
	if c.checkNotClosed() == nil {
		st.LSMBytes, st.VLogBytes = c.db.Size()
	}
	return st
}

// RunGC runs value log garbage collection until nothing is left to rewrite.
func (c *Checkpoint) RunGC() error {
	if err := c.checkNotClosed(); err != nil {
		return err
	}
	if c.config.InMemory {
		return nil
	}
	for {
		err := c.db.RunValueLogGC(c.config.GCDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Close closes the store. Subsequent calls are no-ops.
func (c *Checkpoint) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	timeout := c.config.CloseTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	c.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- c.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close BadgerDB: %w", err)
		}
		logging.Info().Msg("Checkpoint store closed")
		return nil
	case <-time.After(timeout):
		logging.Warn().Dur("timeout", timeout).Msg("Checkpoint store close timed out")
		return fmt.Errorf("checkpoint close timeout after %v", timeout)
	}
}
