// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

// Package validation wraps go-playground/validator v10 behind a process-wide
// singleton and translates field errors into short human-readable messages.
//
// Field names in messages use the struct's json tag, so a failing
//
//	type similarRequest struct {
//	    MaxResults int `json:"max_results" validate:"min=1,max=500"`
//	}
//
// reports "max_results must be at least 1". The same instance validates log
// records at the decode boundary, HTTP request parameters and configuration.
package validation
