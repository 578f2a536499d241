// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package api

import (
	"context"
	"net/http"
	"time"
)

// readinessTimeout bounds each dependency check.
const readinessTimeout = 2 * time.Second

// HealthLive handles GET /api/v1/health/live. It answers 200 while the
// process is serving HTTP, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /api/v1/health/ready. It answers 503 with the
// failing checks when any dependency is unavailable.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	results := make(map[string]string, len(h.checks))
	ready := true
	for _, c := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		err := c.Check(ctx)
		cancel()
		if err != nil {
			ready = false
			results[c.Name] = err.Error()
			continue
		}
		results[c.Name] = "ok"
	}

	if !ready {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "not ready", results)
		return
	}
	rw.Success(map[string]interface{}{
		"ready":  true,
		"checks": results,
	})
}
