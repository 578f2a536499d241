// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "eventsim"

var (
	// Pipeline Metrics
	LogRecordsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_records_consumed_total",
			Help:      "Total number of log records fetched by consumers",
		},
		[]string{"log"},
	)

	LogRecordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_records_skipped_total",
			Help:      "Total number of log records skipped because they could not be decoded or validated",
		},
		[]string{"log", "reason"},
	)

	LogCommitErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_commit_errors_total",
			Help:      "Total number of failed position commits",
		},
		[]string{"consumer", "mode"}, // mode: async, sync
	)

	SimilarityUpdatesEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "similarity_updates_emitted_total",
			Help:      "Total number of similarity updates published",
		},
	)

	PublishAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_attempts_total",
			Help:      "Total number of publish attempts by outcome",
		},
		[]string{"component", "result"}, // result: success, failure
	)

	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Time spent processing one batch per pipeline stage",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// Aggregator State Metrics
	AggregatorItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "aggregator_items",
			Help:      "Number of items with a weight sum in aggregator state",
		},
	)

	AggregatorUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "aggregator_users",
			Help:      "Number of users in the aggregator adjacency index",
		},
	)

	AggregatorPairs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "aggregator_pairs",
			Help:      "Number of item pairs with a min weight sum in aggregator state",
		},
	)

	CheckpointWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoint_writes_total",
			Help:      "Total number of state checkpoint writes",
		},
		[]string{"result"},
	)

	CheckpointDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkpoint_duration_seconds",
			Help:      "Duration of state checkpoint writes",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
	)

	// Store Metrics
	StoreUpsertDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_upsert_duration_seconds",
			Help:      "Duration of store upserts",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"table"},
	)

	StoreUpsertErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_upsert_errors_total",
			Help:      "Total number of failed store upsert attempts",
		},
		[]string{"table"},
	)

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_query_duration_seconds",
			Help:      "Duration of store read queries",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Query Service Metrics
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of recommendation queries",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	QueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_errors_total",
			Help:      "Total number of failed recommendation queries",
		},
		[]string{"operation"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of query cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of query cache misses",
		},
		[]string{"cache"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Total number of query cache evictions",
		},
		[]string{"cache"},
	)

	// HTTP Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Client Metrics
	ClientRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_requests_total",
			Help:      "Total number of query client requests by outcome",
		},
		[]string{"operation", "result"},
	)

	ClientFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "client_fallbacks_total",
			Help:      "Total number of query client calls answered with an empty fallback",
		},
		[]string{"operation"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state_transitions_total",
			Help:      "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Ingest Metrics
	IngestedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_events_total",
			Help:      "Total number of interaction events accepted for publishing",
		},
		[]string{"action"},
	)
)

// RecordConsumed records records fetched from a log.
func RecordConsumed(log string, n int) {
	LogRecordsConsumed.WithLabelValues(log).Add(float64(n))
}

// RecordSkipped records a record that was skipped.
func RecordSkipped(log, reason string) {
	LogRecordsSkipped.WithLabelValues(log, reason).Inc()
}

// RecordCommitError records a failed commit.
func RecordCommitError(consumer, mode string) {
	LogCommitErrors.WithLabelValues(consumer, mode).Inc()
}

// RecordPublish records one publish attempt.
func RecordPublish(component string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	PublishAttempts.WithLabelValues(component, result).Inc()
}

// RecordUpdatesEmitted records similarity updates published by the aggregator.
func RecordUpdatesEmitted(n int) {
	SimilarityUpdatesEmitted.Add(float64(n))
}

// RecordBatch records the duration of a pipeline stage for one batch.
func RecordBatch(stage string, duration time.Duration) {
	BatchDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// SetAggregatorState updates the aggregator state gauges.
func SetAggregatorState(items, users, pairs int) {
	AggregatorItems.Set(float64(items))
	AggregatorUsers.Set(float64(users))
	AggregatorPairs.Set(float64(pairs))
}

// RecordCheckpoint records a checkpoint write.
func RecordCheckpoint(duration time.Duration, err error) {
	CheckpointDuration.Observe(duration.Seconds())
	if err != nil {
		CheckpointWrites.WithLabelValues("failure").Inc()
		return
	}
	CheckpointWrites.WithLabelValues("success").Inc()
}

// RecordUpsert records a store upsert attempt.
func RecordUpsert(table string, duration time.Duration, err error) {
	StoreUpsertDuration.WithLabelValues(table).Observe(duration.Seconds())
	if err != nil {
		StoreUpsertErrors.WithLabelValues(table).Inc()
	}
}

// RecordStoreQuery records a store read.
func RecordStoreQuery(operation string, duration time.Duration) {
	StoreQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordQuery records a query service operation.
func RecordQuery(operation string, duration time.Duration, err error) {
	QueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		QueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordCacheHit records a cache hit.
func RecordCacheHit(cache string) {
	CacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a cache miss.
func RecordCacheMiss(cache string) {
	CacheMisses.WithLabelValues(cache).Inc()
}

// RecordCacheEviction records a cache eviction.
func RecordCacheEviction(cache string) {
	CacheEvictions.WithLabelValues(cache).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordClientRequest records a query client call outcome.
func RecordClientRequest(operation string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	ClientRequests.WithLabelValues(operation, result).Inc()
}

// RecordClientFallback records a fallback answer.
func RecordClientFallback(operation string) {
	ClientFallbacks.WithLabelValues(operation).Inc()
}

// RecordCircuitBreakerTransition records a breaker state change. States are
// the gobreaker state strings: closed, half-open, open.
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(circuitStateValue(to))
}

func circuitStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// RecordIngest records an accepted interaction event.
func RecordIngest(action string) {
	IngestedEvents.WithLabelValues(action).Inc()
}
