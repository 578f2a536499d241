// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

/*
Package metrics provides Prometheus instrumentation for EventSim.

All collectors are registered on the default registry through promauto and
are exposed at /metrics by the API router.

# Available Metrics

Pipeline:
  - eventsim_log_records_consumed_total{log}
  - eventsim_log_records_skipped_total{log, reason}
  - eventsim_log_commit_errors_total{consumer, mode}
  - eventsim_similarity_updates_emitted_total
  - eventsim_publish_attempts_total{component, result}
  - eventsim_batch_duration_seconds{stage}

Aggregator state:
  - eventsim_aggregator_items, eventsim_aggregator_users, eventsim_aggregator_pairs
  - eventsim_checkpoint_writes_total{result}, eventsim_checkpoint_duration_seconds

Store:
  - eventsim_store_upsert_duration_seconds{table}
  - eventsim_store_upsert_errors_total{table}
  - eventsim_store_query_duration_seconds{operation}

Query service:
  - eventsim_query_duration_seconds{operation}
  - eventsim_query_errors_total{operation}
  - eventsim_cache_hits_total{cache}, eventsim_cache_misses_total{cache}
  - eventsim_cache_evictions_total{cache}

HTTP and client:
  - eventsim_http_requests_total{method, endpoint, status}
  - eventsim_http_request_duration_seconds{method, endpoint}
  - eventsim_http_requests_in_flight
  - eventsim_client_requests_total{operation, result}
  - eventsim_client_fallbacks_total{operation}

Circuit breakers:
  - eventsim_circuit_breaker_state{name} (0=closed, 1=half-open, 2=open)
  - eventsim_circuit_breaker_state_transitions_total{name, from_state, to_state}

Ingest:
  - eventsim_ingested_events_total{action}
*/
package metrics
