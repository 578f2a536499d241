// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

/*
Package eventprocessor provides the NATS JetStream plumbing behind the two
append-only logs EventSim is built around.

# Logs

	Stream         Subjects                       Payload
	INTERACTIONS   interactions.<partition>       recommend.InteractionEvent
	SIMILARITIES   similarities.updates           recommend.SimilarityUpdate

Interaction events are partitioned by item id so every event for one item
lands on the same subject. Each stream is consumed through a durable pull
consumer per reader (aggregator, interaction writer, similarity writer).

# Components

  - EmbeddedServer: in-process nats-server with JetStream for single binary
    deployments and tests
  - Connect: client connection with reconnect handling and logging
  - StreamInitializer: idempotent stream provisioning
  - Publisher: Watermill NATS publisher behind a gobreaker circuit breaker
  - JetStreamPoller: batch pull consumer with AckAll semantics
  - Committer: asynchronous per-batch commit and a final synchronous commit
  - Codec functions: goccy/go-json encoding plus validation of log records

# Commit Model

Consumers use AckAllPolicy, so acknowledging the last record of a batch
commits the whole batch. Committer.Commit sends that ack without waiting
(Ack). Committer.Flush, called on shutdown, sends a double ack and waits for
the server to confirm (DoubleAck). Records whose batch was never committed are
redelivered after AckWait or on the next start.
*/
package eventprocessor
