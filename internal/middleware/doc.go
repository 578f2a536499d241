// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

/*
Package middleware provides HTTP middleware shared by the query API.

  - RequestID: propagates or generates an X-Request-ID and threads it into
    the logging context.
  - PrometheusMetrics: records request counts, latency and in-flight
    requests, labelled by the chi route pattern.

Both have the func(http.Handler) http.Handler shape and mount directly on a
chi router:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

See Also:

  - internal/api: router and handlers
  - internal/metrics: metric definitions
*/
package middleware
