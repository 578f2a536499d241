// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

/*
Package api exposes the recommendation query service, interaction ingestion
and health probes over HTTP/JSON.

Routes:

	GET  /api/v1/recommendations/users/{userID}?max_results=N
	GET  /api/v1/recommendations/items/{itemID}/similar?user_id=U&max_results=N
	POST /api/v1/recommendations/interactions/count   {"item_ids":[...]}
	POST /api/v1/interactions                          {"user_id":..,"item_id":..,"action":".."}
	GET  /api/v1/health/live
	GET  /api/v1/health/ready
	GET  /metrics

Every JSON response uses the APIResponse envelope:

	{"success":true,"data":[{"item_id":2,"score":0.632}],"meta":{"request_id":"..","timestamp":"..","count":1}}

Errors map to status codes as follows: validation failures and
recommend.ErrInvalidArgument are 400, recommend.ErrStoreUnavailable and an
unreachable event log are 503, anything else is 500.

Middleware (outermost first): request ID with logging context, real IP,
panic recovery, CORS, then per route group rate limiting (go-chi/httprate),
security headers and Prometheus instrumentation.
*/
package api
