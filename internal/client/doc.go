// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

/*
Package client is the caller side of the recommendation query API.

Every call is rate limited (golang.org/x/time/rate), bounded by a per-attempt
timeout, retried a fixed number of times with a fixed wait, and guarded by a
circuit breaker (sony/gobreaker). When retries are exhausted or the breaker
is open the call answers with an empty list instead of an error, so callers
degrade to "no recommendations" rather than failing. Requests the server
rejects as invalid (4xx) are returned as errors wrapping
recommend.ErrInvalidArgument and are never retried.

	c, err := client.New(cfg.Client)
	items, err := c.GetRecommendationsForUser(ctx, 7, 10)

*Client satisfies query.Querier, so it can stand in for a local service.
*/
package client
