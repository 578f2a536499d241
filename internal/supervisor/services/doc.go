// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

/*
Package services adapts EventSim components to suture.Service.

  - HTTPServerService: ListenAndServe/Shutdown servers (the query API)
  - RunnerService: blocking Run(ctx) loops (aggregator, writers)
  - StartStopService: Start/Stop background loops (checkpoint GC)
  - NATSWatchdogService: health watch over the embedded NATS server

Every wrapper implements fmt.Stringer so suture logs name the component.
*/
package services
