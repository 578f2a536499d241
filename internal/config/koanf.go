// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/eventsim/config.yaml",
	"/etc/eventsim/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the base layer.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		NATS: NATSConfig{
			URL:             "nats://127.0.0.1:4222",
			EmbeddedServer:  true,
			StoreDir:        "/data/nats/jetstream",
			MaxMemory:       256 << 20, // 256MB
			MaxStore:        10 << 30,  // 10GB
			Partitions:      8,
			StreamMaxAge:    7 * 24 * time.Hour,
			DuplicateWindow: 2 * time.Minute,
			ConnectTimeout:  10 * time.Second,
		},
		Aggregator: AggregatorConfig{
			Durable:        "similarity-aggregator",
			BatchSize:      500,
			PollTimeout:    time.Second,
			AckWait:        60 * time.Second,
			EmitRetries:    5,
			EmitRetryWait:  200 * time.Millisecond,
			QueueDepth:     4,
			CheckpointPath: "/data/checkpoint",
		},
		Writers: WritersConfig{
			InteractionsDurable: "interactions-writer",
			SimilaritiesDurable: "similarities-writer",
			BatchSize:           500,
			PollTimeout:         time.Second,
			AckWait:             60 * time.Second,
			StoreRetries:        5,
			StoreRetryWait:      200 * time.Millisecond,
		},
		Database: DatabaseConfig{
			Driver:          "duckdb",
			Path:            "/data/eventsim.duckdb",
			MaxMemory:       "1GB",
			Threads:         0,
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Query: QueryConfig{
			CacheBackend:  CacheBackendMemory,
			CacheTTL:      30 * time.Second,
			CacheCapacity: 10000,
			RedisAddr:     "127.0.0.1:6379",
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			RateLimitRequests: 100,
			RateLimitWindow:   time.Second,
			CORSOrigins:       []string{"*"},
		},
		Client: ClientConfig{
			BaseURL:   "http://127.0.0.1:8080",
			Timeout:   5 * time.Second,
			Retries:   3,
			RetryWait: 500 * time.Millisecond,
			RateLimit: 50,
			Burst:     10,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5.0,
			FailureDecay:     30.0,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// Default returns the defaults without consulting files or the environment.
func Default() *Config {
	return defaultConfig()
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"nats_url":              "nats.url",
	"nats_embedded":         "nats.embedded_server",
	"nats_store_dir":        "nats.store_dir",
	"nats_max_memory":       "nats.max_memory",
	"nats_max_store":        "nats.max_store",
	"nats_partitions":       "nats.partitions",
	"nats_stream_max_age":   "nats.stream_max_age",
	"nats_duplicate_window": "nats.duplicate_window",
	"nats_connect_timeout":  "nats.connect_timeout",

	"aggregator_durable":         "aggregator.durable",
	"aggregator_batch_size":      "aggregator.batch_size",
	"aggregator_poll_timeout":    "aggregator.poll_timeout",
	"aggregator_ack_wait":        "aggregator.ack_wait",
	"aggregator_emit_retries":    "aggregator.emit_retries",
	"aggregator_emit_retry_wait": "aggregator.emit_retry_wait",
	"aggregator_queue_depth":     "aggregator.queue_depth",
	"checkpoint_path":            "aggregator.checkpoint_path",

	"writer_interactions_durable": "writers.interactions_durable",
	"writer_similarities_durable": "writers.similarities_durable",
	"writer_batch_size":           "writers.batch_size",
	"writer_poll_timeout":         "writers.poll_timeout",
	"writer_ack_wait":             "writers.ack_wait",
	"writer_store_retries":        "writers.store_retries",
	"writer_store_retry_wait":     "writers.store_retry_wait",

	"db_driver":            "database.driver",
	"duckdb_path":          "database.path",
	"duckdb_max_memory":    "database.max_memory",
	"duckdb_threads":       "database.threads",
	"postgres_dsn":         "database.dsn",
	"db_max_open_conns":    "database.max_open_conns",
	"db_max_idle_conns":    "database.max_idle_conns",
	"db_conn_max_lifetime": "database.conn_max_lifetime",

	"query_cache_backend":  "query.cache_backend",
	"query_cache_ttl":      "query.cache_ttl",
	"query_cache_capacity": "query.cache_capacity",
	"redis_addr":           "query.redis_addr",
	"redis_password":       "query.redis_password",
	"redis_db":             "query.redis_db",

	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"rate_limit_requests":   "server.rate_limit_requests",
	"rate_limit_window":     "server.rate_limit_window",
	"cors_origins":          "server.cors_origins",

	"eventsim_url":               "client.base_url",
	"eventsim_client_timeout":    "client.timeout",
	"eventsim_client_retries":    "client.retries",
	"eventsim_client_retry_wait": "client.retry_wait",
	"eventsim_client_rate_limit": "client.rate_limit",
	"eventsim_client_burst":      "client.burst",

	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc maps an environment variable name to a koanf path.
// Unmapped variables return "" and are skipped.
//
// Examples:
//   - NATS_URL -> nats.url
//   - DUCKDB_PATH -> database.path
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated environment values.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Values loaded from YAML are already slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}
