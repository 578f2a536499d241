// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package api

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/eventsim/internal/ingest"
	"github.com/tomtom215/eventsim/internal/recommend/query"
)

// requestTimeout bounds each query and ingest call.
const requestTimeout = 10 * time.Second

// Recorder appends a raw action to the interaction log.
// *ingest.Ingestor satisfies it.
type Recorder interface {
	Record(ctx context.Context, raw ingest.RawAction) (ingest.Receipt, error)
}

// ReadinessCheck reports whether one dependency can serve traffic.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Handler serves the HTTP endpoints.
type Handler struct {
	querier   query.Querier
	recorder  Recorder
	checks    []ReadinessCheck
	startTime time.Time
	timeout   time.Duration
}

// NewHandler creates a handler. recorder may be nil, in which case the
// ingest route is not mounted.
func NewHandler(querier query.Querier, recorder Recorder, checks ...ReadinessCheck) (*Handler, error) {
	if querier == nil {
		return nil, fmt.Errorf("api: querier is required")
	}
	for _, c := range checks {
		if c.Name == "" || c.Check == nil {
			return nil, fmt.Errorf("api: readiness check needs a name and a func")
		}
	}
	return &Handler{
		querier:   querier,
		recorder:  recorder,
		checks:    checks,
		startTime: time.Now(),
		timeout:   requestTimeout,
	}, nil
}
