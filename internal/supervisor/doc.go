// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

/*
Package supervisor runs the long-lived components under a suture/v4 tree.

The tree has three layers below the root:

  - data: checkpoint value-log GC and the embedded NATS watchdog
  - pipeline: the aggregator and the interaction and similarity writers
  - api: the HTTP query server

A failing service is restarted by its layer with suture's failure decay and
backoff; the other layers keep running. An aggregator that exhausts its
publish retries therefore restarts, rebuilds its state from the checkpoint
and resumes from the last committed offset.

Supervisor events are logged through sutureslog into the zerolog-backed slog
handler from internal/logging.

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFromSettings(cfg.Supervisor))
	tree.AddPipelineService(services.NewRunnerService("aggregator", agg))
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))
	err = tree.Serve(ctx)

Service wrappers live in the services subpackage.
*/
package supervisor
