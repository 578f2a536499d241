// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

/*
Package aggregator runs the similarity aggregation pipeline.

The pipeline has three stages connected by bounded channels and run under
one errgroup:

	poll  -> fetches batches from the interaction log
	apply -> owns the similarity.State and folds each batch into it
	emit  -> publishes the batch's updates, checkpoints its state delta and
	         commits its last offset

Only the apply stage touches the state. A batch's offset is committed after
its updates are published and its weights are checkpointed, so a crash at
any point causes at most a replay of uncommitted batches, which the
high-water-mark weights make idempotent.

Every Run starts from the checkpoint rather than from whatever state a
previous failed run left in memory. A batch whose updates never reached the
similarity log is then replayed against state that has not seen it, and the
lost updates are emitted again.

Shutdown stops polling, lets already fetched batches drain through apply and
emit, and commits the final offset synchronously. Publish retries exhausted
during emit end the run with ErrPipelineFatal.
*/
package aggregator
