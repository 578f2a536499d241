// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package eventprocessor

import (
	"fmt"
	"time"
)

// ServerConfig holds embedded NATS server settings.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// DefaultServerConfig returns production defaults for the embedded server.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          "/data/nats/jetstream",
		JetStreamMaxMem:   256 << 20, // 256MB
		JetStreamMaxStore: 10 << 30,  // 10GB
	}
}

// ConnConfig holds client connection settings.
type ConnConfig struct {
	URL             string
	Name            string
	ConnectTimeout  time.Duration
	MaxReconnects   int
	ReconnectWait   time.Duration
	ReconnectBuffer int
}

// DefaultConnConfig returns production defaults for url.
func DefaultConnConfig(url, name string) ConnConfig {
	return ConnConfig{
		URL:             url,
		Name:            name,
		ConnectTimeout:  10 * time.Second,
		MaxReconnects:   -1, // Unlimited
		ReconnectWait:   2 * time.Second,
		ReconnectBuffer: 8 * 1024 * 1024, // 8MB
	}
}

// PublisherConfig holds publisher configuration.
type PublisherConfig struct {
	ConnConfig
	EnableTrackMsgID bool
}

// DefaultPublisherConfig returns production defaults for the publisher.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		ConnConfig:       DefaultConnConfig(url, "eventsim-publisher"),
		EnableTrackMsgID: true,
	}
}

// StreamConfig holds JetStream stream settings.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// InteractionsStreamConfig returns the interaction log stream.
func InteractionsStreamConfig(maxAge, duplicates time.Duration) StreamConfig {
	return StreamConfig{
		Name:            InteractionsStream,
		Subjects:        []string{InteractionsSubjectPrefix + ".*"},
		MaxAge:          maxAge,
		MaxBytes:        -1,
		MaxMsgs:         -1,
		DuplicateWindow: duplicates,
		Replicas:        1,
	}
}

// SimilaritiesStreamConfig returns the similarity log stream.
func SimilaritiesStreamConfig(maxAge, duplicates time.Duration) StreamConfig {
	return StreamConfig{
		Name:            SimilaritiesStream,
		Subjects:        []string{SimilaritiesSubject},
		MaxAge:          maxAge,
		MaxBytes:        -1,
		MaxMsgs:         -1,
		DuplicateWindow: duplicates,
		Replicas:        1,
	}
}

// ConsumerConfig holds durable pull consumer settings.
type ConsumerConfig struct {
	Stream      string
	Durable     string
	BatchSize   int
	PollTimeout time.Duration
	AckWait     time.Duration

	// MaxAckPending bounds records delivered but not yet committed. It must
	// cover every batch the pipeline may hold in flight.
	MaxAckPending int
}

// Validate checks the consumer configuration.
func (c *ConsumerConfig) Validate() error {
	switch {
	case c.Stream == "":
		return fmt.Errorf("%w: consumer stream required", ErrInvalidConfig)
	case c.Durable == "":
		return fmt.Errorf("%w: consumer durable name required", ErrInvalidConfig)
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidConfig)
	case c.PollTimeout <= 0:
		return fmt.Errorf("%w: poll timeout must be positive", ErrInvalidConfig)
	case c.AckWait <= c.PollTimeout:
		return fmt.Errorf("%w: ack wait must exceed poll timeout", ErrInvalidConfig)
	case c.MaxAckPending != 0 && c.MaxAckPending < c.BatchSize:
		return fmt.Errorf("%w: max ack pending must be at least the batch size", ErrInvalidConfig)
	}
	return nil
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32        // Allowed in half-open state
	Interval         time.Duration // Reset interval for counts
	Timeout          time.Duration // Time to stay open
	FailureThreshold uint32        // Failures before opening
}

// DefaultCircuitBreakerConfig returns production defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}
