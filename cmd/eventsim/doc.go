// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

/*
Package main is the eventsim command.

eventsim runs the recommendation pipeline: the similarity aggregator, the
interaction and similarity store writers, and the HTTP query service. Every
component can run in one process (serve) or on its own.

# Supervision

Long-running components run under a Suture v4 tree:

	RootSupervisor ("eventsim")
	├── DataSupervisor ("data-layer")
	│   ├── NATS watchdog (embedded server only)
	│   └── Checkpoint value-log GC
	├── PipelineSupervisor ("pipeline-layer")
	│   ├── similarity-aggregator
	│   ├── interactions-writer
	│   └── similarities-writer
	└── APISupervisor ("api-layer")
	    └── HTTP Server

The embedded NATS server is started before the tree and shut down after it,
so that loops stopped by the tree can still commit their final offsets.

# Commands

	eventsim serve                      # everything in one process
	eventsim aggregate                  # similarity aggregator only
	eventsim write --log interactions   # one or both store writers
	eventsim query                      # HTTP query service only
	eventsim ingest --user 1 --item 2 --action LIKE
	eventsim get recommendations --user 1
	eventsim version

# Configuration

Configuration is loaded with Koanf v2 from built-in defaults, an optional
YAML file (--config or CONFIG_PATH) and environment variables. A .env file
in the working directory is loaded into the environment first.

# Signal Handling

SIGINT and SIGTERM cancel the tree. Consumer loops stop polling, flush
pending updates and commit their final offsets before exit.
*/
package main
