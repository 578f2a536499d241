// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package eventprocessor

import "errors"

// ErrPublisherClosed is returned when publishing after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// ErrInvalidConfig is returned when configuration is invalid.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrMalformedRecord is returned by the decoders for records that cannot be
// parsed. Consumers skip such records.
var ErrMalformedRecord = errors.New("malformed log record")

// ErrInvalidRecord is returned by the decoders for records that parse but
// describe something impossible, such as an unknown action or itemA >= itemB.
// Consumers skip such records.
var ErrInvalidRecord = errors.New("invalid log record")
