// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package aggregator

import "time"

// Config holds pipeline settings.
type Config struct {
	// EmitRetries is the number of publish attempts per batch.
	EmitRetries int

	// EmitRetryWait is the fixed pause between publish attempts.
	EmitRetryWait time.Duration

	// PollRetryWait is the pause after a failed poll.
	PollRetryWait time.Duration

	// QueueDepth is the capacity of the channels between stages.
	QueueDepth int

	// FlushTimeout bounds the synchronous commit on exit.
	FlushTimeout time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		EmitRetries:   5,
		EmitRetryWait: 200 * time.Millisecond,
		PollRetryWait: time.Second,
		QueueDepth:    4,
		FlushTimeout:  10 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.EmitRetries < 1 {
		c.EmitRetries = d.EmitRetries
	}
	if c.EmitRetryWait < 0 {
		c.EmitRetryWait = 0
	}
	if c.PollRetryWait <= 0 {
		c.PollRetryWait = d.PollRetryWait
	}
	if c.QueueDepth < 0 {
		c.QueueDepth = 0
	}
	if c.FlushTimeout <= 0 {
		c.FlushTimeout = d.FlushTimeout
	}
}
