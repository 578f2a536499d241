// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package services

import (
	"context"
	"fmt"

	"github.com/tomtom215/eventsim/internal/logging"
)

// Runner is a blocking loop that returns when ctx is canceled or on a fatal
// error. *aggregator.Aggregator and the *writer.Writer instances satisfy it.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerService supervises a Runner. A Run that returns while the service is
// still wanted counts as a failure so suture restarts it.
type RunnerService struct {
	runner Runner
	name   string
}

// NewRunnerService wraps runner under name.
func NewRunnerService(name string, runner Runner) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	err := s.runner.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		logging.Error().Err(err).Str("service", s.name).Msg("Pipeline loop failed, restarting")
		return fmt.Errorf("%s: %w", s.name, err)
	}
	return fmt.Errorf("%s: loop exited unexpectedly", s.name)
}

// String implements fmt.Stringer.
func (s *RunnerService) String() string {
	return s.name
}
