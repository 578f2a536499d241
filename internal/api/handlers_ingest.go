// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/eventsim/internal/ingest"
	"github.com/tomtom215/eventsim/internal/logging"
	"github.com/tomtom215/eventsim/internal/recommend"
	"github.com/tomtom215/eventsim/internal/validation"
)

// RecordInteraction handles POST /api/v1/interactions. The event is
// accepted once it is durably appended to the interaction log; similarity
// scores update asynchronously.
func (h *Handler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var raw ingest.RawAction
	if err := decodeJSONBody(w, r, &raw); err != nil {
		rw.BadRequest(err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	receipt, err := h.recorder.Record(ctx, raw)
	switch {
	case err == nil:
		rw.Accepted(receipt)
	case validation.IsValidationError(err), errors.Is(err, recommend.ErrInvalidArgument):
		writeServiceError(rw, r, "ingest", err)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to append interaction")
		rw.ServiceUnavailable("interaction log unavailable")
	}
}
