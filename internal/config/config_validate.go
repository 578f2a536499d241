// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package config

import (
	"fmt"

	"github.com/tomtom215/eventsim/internal/validation"
)

// Validate checks struct tags and then the cross-field rules.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	validators := []func() error{
		c.validateNATS,
		c.validateAggregator,
		c.validateWriters,
		c.validateDatabase,
		c.validateQuery,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateNATS() error {
	if c.NATS.EmbeddedServer && c.NATS.StoreDir == "" {
		return fmt.Errorf("nats.store_dir is required when nats.embedded_server is true")
	}
	return nil
}

// Records must stay uncommitted no longer than AckWait or the broker
// redelivers them while they are still in flight.
func (c *Config) validateAggregator() error {
	if c.Aggregator.AckWait <= c.Aggregator.PollTimeout {
		return fmt.Errorf("aggregator.ack_wait (%v) must exceed aggregator.poll_timeout (%v)",
			c.Aggregator.AckWait, c.Aggregator.PollTimeout)
	}
	return nil
}

func (c *Config) validateWriters() error {
	if c.Writers.AckWait <= c.Writers.PollTimeout {
		return fmt.Errorf("writers.ack_wait (%v) must exceed writers.poll_timeout (%v)",
			c.Writers.AckWait, c.Writers.PollTimeout)
	}
	if c.Writers.InteractionsDurable == c.Writers.SimilaritiesDurable {
		return fmt.Errorf("writers.interactions_durable and writers.similarities_durable must differ")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case "duckdb":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the duckdb driver")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	}
	return nil
}

func (c *Config) validateQuery() error {
	switch c.Query.CacheBackend {
	case CacheBackendMemory:
		if c.Query.CacheCapacity <= 0 {
			return fmt.Errorf("query.cache_capacity must be positive for the memory cache")
		}
	case CacheBackendRedis:
		if c.Query.RedisAddr == "" {
			return fmt.Errorf("query.redis_addr is required for the redis cache")
		}
	}
	if c.Query.CacheBackend != CacheBackendNone && c.Query.CacheTTL <= 0 {
		return fmt.Errorf("query.cache_ttl must be positive when caching is enabled")
	}
	return nil
}
