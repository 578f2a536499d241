// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/eventsim/internal/recommend"
)

const (
	// DefaultMaxResults applies when max_results is absent.
	DefaultMaxResults = 10

	// MaxResultsLimit caps max_results.
	MaxResultsLimit = 500

	// MaxCountItems caps the item_ids of one interaction count request.
	MaxCountItems = 1000

	maxBodyBytes = 1 << 20
)

// InteractionsCountRequest is the body of the interaction count query.
type InteractionsCountRequest struct {
	ItemIDs []int64 `json:"item_ids" validate:"max=1000,dive,gt=0"`
}

// pathID parses a positive int64 chi URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	return parsePositiveID(name, chi.URLParam(r, name))
}

func parsePositiveID(name, raw string) (int64, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", recommend.ErrInvalidArgument, name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", recommend.ErrInvalidArgument, name)
	}
	return id, nil
}

// maxResultsParam parses max_results, defaulting when absent.
func maxResultsParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("max_results")
	if raw == "" {
		return DefaultMaxResults, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > MaxResultsLimit {
		return 0, fmt.Errorf("%w: max_results must be between 1 and %d", recommend.ErrInvalidArgument, MaxResultsLimit)
	}
	return n, nil
}

// decodeJSONBody decodes a bounded JSON body into dst, rejecting unknown
// fields and trailing data.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", recommend.ErrInvalidArgument, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("%w: request body must contain a single JSON object", recommend.ErrInvalidArgument)
	}
	return nil
}
