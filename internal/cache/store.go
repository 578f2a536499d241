// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package cache

import (
	"context"
	"time"

	"github.com/tomtom215/eventsim/internal/metrics"
)

// Store is a byte-valued cache with per-entry TTL.
type Store interface {
	// Get returns the value and true on a hit. Backend failures are returned
	// as errors and count as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Close releases backend resources.
	Close() error
}

// MemoryStore is an in-process Store backed by an LRU.
type MemoryStore struct {
	name string
	lru  *LRU[[]byte]
}

// NewMemoryStore creates an in-process store. name labels its metrics.
func NewMemoryStore(name string, capacity int) *MemoryStore {
	lru := NewLRU[[]byte](capacity, time.Minute)
	lru.onEvict = func(string) { metrics.RecordCacheEviction(name) }
	return &MemoryStore{name: name, lru: lru}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.lru.Get(key)
	if ok {
		metrics.RecordCacheHit(s.name)
	} else {
		metrics.RecordCacheMiss(s.name)
	}
	return v, ok, nil
}

// Set implements Store. Non-positive ttl uses the LRU default of one minute.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.lru.AddWithTTL(key, value, ttl)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.lru.Clear()
	return nil
}

// Stats returns the LRU counters.
func (s *MemoryStore) Stats() LRUStats {
	return s.lru.Stats()
}

// CleanupExpired drops expired entries.
func (s *MemoryStore) CleanupExpired() int {
	return s.lru.CleanupExpired()
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)
