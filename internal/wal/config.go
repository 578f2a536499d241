// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package wal

import (
	"fmt"
	"time"
)

// Config holds checkpoint store settings.
type Config struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in memory. Tests only.
	InMemory bool

	// SyncWrites forces fsync after every write.
	SyncWrites bool

	// Compression enables Snappy compression of table blocks.
	Compression bool

	MemTableSize     int64
	ValueLogFileSize int64
	NumCompactors    int

	// GCInterval is the period of value log garbage collection.
	GCInterval time.Duration

	// GCDiscardRatio is passed to RunValueLogGC.
	GCDiscardRatio float64

	// CloseTimeout bounds Close.
	CloseTimeout time.Duration
}

// DefaultConfig returns production defaults for path.
func DefaultConfig(path string) Config {
	return Config{
		Path:             path,
		SyncWrites:       true,
		Compression:      true,
		MemTableSize:     16 << 20, // 16MB
		ValueLogFileSize: 64 << 20, // 64MB
		NumCompactors:    2,
		GCInterval:       10 * time.Minute,
		GCDiscardRatio:   0.5,
		CloseTimeout:     30 * time.Second,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !c.InMemory && c.Path == "" {
		return &ConfigError{Field: "Path", Message: "required unless InMemory is set"}
	}
	if c.MemTableSize < 1<<20 {
		return &ConfigError{Field: "MemTableSize", Message: "must be at least 1MB"}
	}
	if c.ValueLogFileSize < 1<<20 {
		return &ConfigError{Field: "ValueLogFileSize", Message: "must be at least 1MB"}
	}
	if c.NumCompactors < 2 {
		return &ConfigError{Field: "NumCompactors", Message: "must be at least 2"}
	}
	if c.GCDiscardRatio <= 0 || c.GCDiscardRatio >= 1 {
		return &ConfigError{Field: "GCDiscardRatio", Message: "must be in (0,1)"}
	}
	return nil
}

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("checkpoint config: %s %s", e.Field, e.Message)
}
