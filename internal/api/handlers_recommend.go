// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package api

import (
	"context"
	"net/http"

	"github.com/tomtom215/eventsim/internal/recommend/query"
	"github.com/tomtom215/eventsim/internal/validation"
)

// GetRecommendations handles GET /api/v1/recommendations/users/{userID}.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, err := pathID(r, "userID")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	maxResults, err := maxResultsParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.querier.GetRecommendationsForUser(ctx, userID, maxResults)
	if err != nil {
		writeServiceError(rw, r, query.OpRecommendations, err)
		return
	}
	rw.List(items, len(items))
}

// GetSimilarEvents handles GET /api/v1/recommendations/items/{itemID}/similar.
func (h *Handler) GetSimilarEvents(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	itemID, err := pathID(r, "itemID")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	userID, err := parsePositiveID("user_id", r.URL.Query().Get("user_id"))
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	maxResults, err := maxResultsParam(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.querier.GetSimilarEvents(ctx, itemID, userID, maxResults)
	if err != nil {
		writeServiceError(rw, r, query.OpSimilarEvents, err)
		return
	}
	rw.List(items, len(items))
}

// GetInteractionsCount handles POST /api/v1/recommendations/interactions/count.
func (h *Handler) GetInteractionsCount(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req InteractionsCountRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		writeServiceError(rw, r, query.OpInteractionsCount, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.querier.GetInteractionsCount(ctx, req.ItemIDs)
	if err != nil {
		writeServiceError(rw, r, query.OpInteractionsCount, err)
		return
	}
	rw.List(items, len(items))
}
