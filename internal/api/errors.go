// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/eventsim/internal/logging"
	"github.com/tomtom215/eventsim/internal/recommend"
	"github.com/tomtom215/eventsim/internal/validation"
)

// writeServiceError maps a service error to a status code and envelope.
// Client errors are reported verbatim; server errors are logged and
// reported generically.
func writeServiceError(rw *ResponseWriter, r *http.Request, op string, err error) {
	var ve *validation.RequestValidationError
	switch {
	case errors.As(err, &ve):
		rw.ValidationError(ve.Error(), ve.Fields)
	case errors.Is(err, recommend.ErrInvalidArgument):
		rw.BadRequest(err.Error())
	case errors.Is(err, recommend.ErrStoreUnavailable):
		logging.Ctx(r.Context()).Warn().Err(err).Str("operation", op).Msg("Store unavailable")
		rw.ServiceUnavailable("store unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		logging.Ctx(r.Context()).Warn().Err(err).Str("operation", op).Msg("Request timed out")
		rw.Error(http.StatusGatewayTimeout, ErrCodeServiceUnavailable, "request timed out")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("operation", op).Msg("Request failed")
		rw.InternalError("internal error")
	}
}
