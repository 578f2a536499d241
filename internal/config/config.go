// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package config

import (
	"fmt"
	"time"
)

// Config is the root configuration.
type Config struct {
	Logging    LoggingConfig    `koanf:"logging"`
	NATS       NATSConfig       `koanf:"nats"`
	Aggregator AggregatorConfig `koanf:"aggregator"`
	Writers    WritersConfig    `koanf:"writers"`
	Database   DatabaseConfig   `koanf:"database"`
	Query      QueryConfig      `koanf:"query"`
	Server     ServerConfig     `koanf:"server"`
	Client     ClientConfig     `koanf:"client"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// LoggingConfig configures the zerolog global logger.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`

	// Format is json or console.
	Format string `koanf:"format" validate:"oneof=json console"`

	// Caller includes file and line in each entry.
	Caller bool `koanf:"caller"`
}

// NATSConfig configures the broker connection and the JetStream logs.
type NATSConfig struct {
	// URL is the NATS server connection URL.
	URL string `koanf:"url" validate:"required"`

	// EmbeddedServer starts an in-process NATS server listening on URL's port.
	EmbeddedServer bool `koanf:"embedded_server"`

	// StoreDir is the JetStream storage directory for the embedded server.
	StoreDir string `koanf:"store_dir"`

	// MaxMemory is the JetStream memory limit in bytes.
	MaxMemory int64 `koanf:"max_memory" validate:"gte=0"`

	// MaxStore is the JetStream disk limit in bytes.
	MaxStore int64 `koanf:"max_store" validate:"gte=0"`

	// Partitions is the number of interaction log subjects. Events for one
	// item always land on the same partition.
	Partitions int `koanf:"partitions" validate:"gte=1,lte=1024"`

	// StreamMaxAge bounds how long log records are kept.
	StreamMaxAge time.Duration `koanf:"stream_max_age" validate:"gte=0"`

	// DuplicateWindow is the JetStream message-id deduplication window.
	DuplicateWindow time.Duration `koanf:"duplicate_window" validate:"gte=0"`

	// ConnectTimeout bounds the initial connection attempt.
	ConnectTimeout time.Duration `koanf:"connect_timeout" validate:"gt=0"`
}

// AggregatorConfig configures the similarity aggregator pipeline.
type AggregatorConfig struct {
	// Durable is the consumer name on the interaction log.
	Durable string `koanf:"durable" validate:"required"`

	// BatchSize is the maximum number of records fetched per poll.
	BatchSize int `koanf:"batch_size" validate:"gte=1,lte=10000"`

	// PollTimeout bounds a single fetch when the log is idle.
	PollTimeout time.Duration `koanf:"poll_timeout" validate:"gt=0"`

	// AckWait is the broker redelivery timeout for uncommitted records. It
	// must cover a poll plus the time a batch spends queued in the pipeline.
	AckWait time.Duration `koanf:"ack_wait" validate:"gt=0"`

	// EmitRetries is the number of publish attempts per batch.
	EmitRetries int `koanf:"emit_retries" validate:"gte=1"`

	// EmitRetryWait is the fixed wait between publish attempts.
	EmitRetryWait time.Duration `koanf:"emit_retry_wait" validate:"gte=0"`

	// QueueDepth is the channel capacity between pipeline stages.
	QueueDepth int `koanf:"queue_depth" validate:"gte=1"`

	// CheckpointPath is the Badger directory for state checkpoints.
	// Empty disables checkpointing.
	CheckpointPath string `koanf:"checkpoint_path"`
}

// WritersConfig configures the interaction and similarity store writers.
type WritersConfig struct {
	// InteractionsDurable is the consumer name on the interaction log.
	InteractionsDurable string `koanf:"interactions_durable" validate:"required"`

	// SimilaritiesDurable is the consumer name on the similarity log.
	SimilaritiesDurable string `koanf:"similarities_durable" validate:"required"`

	BatchSize   int           `koanf:"batch_size" validate:"gte=1,lte=10000"`
	PollTimeout time.Duration `koanf:"poll_timeout" validate:"gt=0"`
	AckWait     time.Duration `koanf:"ack_wait" validate:"gt=0"`

	// StoreRetries is the number of attempts per upsert.
	StoreRetries int `koanf:"store_retries" validate:"gte=1"`

	// StoreRetryWait is the fixed wait between upsert attempts.
	StoreRetryWait time.Duration `koanf:"store_retry_wait" validate:"gte=0"`
}

// DatabaseConfig selects and configures the store.
type DatabaseConfig struct {
	// Driver is duckdb or postgres.
	Driver string `koanf:"driver" validate:"oneof=duckdb postgres"`

	// Path is the DuckDB file, or :memory:.
	Path string `koanf:"path"`

	// DSN is the Postgres connection string.
	DSN string `koanf:"dsn"`

	// MaxMemory is the DuckDB memory limit, e.g. 1GB.
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB worker thread count, 0 for the DuckDB default.
	Threads int `koanf:"threads" validate:"gte=0"`

	MaxOpenConns    int           `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"gte=0"`
}

// Cache backends.
const (
	CacheBackendNone   = "none"
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// QueryConfig configures the query service cache.
type QueryConfig struct {
	// CacheBackend is none, memory or redis.
	CacheBackend string `koanf:"cache_backend" validate:"oneof=none memory redis"`

	// CacheTTL bounds result staleness.
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"gte=0"`

	// CacheCapacity is the in-process LRU entry limit.
	CacheCapacity int `koanf:"cache_capacity" validate:"gte=0"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db" validate:"gte=0"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	// RateLimitRequests per RateLimitWindow per client IP. 0 disables limiting.
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gte=0"`

	// CORSOrigins lists allowed browser origins. "*" allows any origin.
	CORSOrigins []string `koanf:"cors_origins"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ClientConfig configures the query service HTTP client.
type ClientConfig struct {
	BaseURL   string        `koanf:"base_url" validate:"required,url"`
	Timeout   time.Duration `koanf:"timeout" validate:"gt=0"`
	Retries   int           `koanf:"retries" validate:"gte=1"`
	RetryWait time.Duration `koanf:"retry_wait" validate:"gte=0"`

	// RateLimit is requests per second, 0 for unlimited.
	RateLimit float64 `koanf:"rate_limit" validate:"gte=0"`
	Burst     int     `koanf:"burst" validate:"gte=0"`
}

// SupervisorConfig configures the suture tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gt=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gt=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}
