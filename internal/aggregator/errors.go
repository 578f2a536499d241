// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package aggregator

import "errors"

// ErrPipelineFatal wraps infrastructure failures that end a run: exhausted
// publish retries or a failed checkpoint write. The supervisor restarts the
// aggregator, which then resumes from the last commit.
var ErrPipelineFatal = errors.New("aggregator pipeline failed")
