// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

/*
Package config provides layered configuration loading for EventSim.

Configuration is assembled with koanf in three layers, later layers winning:

 1. Struct defaults (defaultConfig)
 2. A YAML file, from CONFIG_PATH or the first of DefaultConfigPaths found
 3. Environment variables, mapped explicitly by envTransformFunc

The CLI loads a .env file into the process environment before Load runs, so
.env values behave exactly like exported variables.

# Sections

  - logging: level, format, caller
  - nats: broker URL, embedded server, JetStream storage and stream limits,
    interaction log partition count
  - aggregator: consumer durable, batch size, poll timeout, ack wait,
    emit retry policy, checkpoint directory
  - writers: batch size, poll timeout, ack wait, store retry policy
  - database: store driver (duckdb or postgres), DuckDB path, Postgres DSN, pool
  - query: cache backend (none, memory, redis), TTL, capacity, Redis address
  - server: HTTP bind address, timeouts, per-IP rate limit
  - client: base URL, timeout, retries and rate limit of the query client
  - supervisor: suture failure threshold, decay, backoff, shutdown timeout

# Environment Variables

Common overrides:

  - LOG_LEVEL, LOG_FORMAT
  - NATS_URL, NATS_EMBEDDED, NATS_STORE_DIR, NATS_PARTITIONS
  - AGGREGATOR_BATCH_SIZE, AGGREGATOR_POLL_TIMEOUT, CHECKPOINT_PATH
  - WRITER_BATCH_SIZE, WRITER_STORE_RETRIES
  - DB_DRIVER, DUCKDB_PATH, POSTGRES_DSN
  - QUERY_CACHE_BACKEND, QUERY_CACHE_TTL, REDIS_ADDR
  - HTTP_HOST, HTTP_PORT, RATE_LIMIT_REQUESTS
  - EVENTSIM_URL

Validate runs struct tag validation (go-playground/validator) followed by the
cross-field checks that tags cannot express.
*/
package config
