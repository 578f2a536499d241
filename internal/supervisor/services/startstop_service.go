// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package services

import (
	"context"
	"fmt"
)

// StartStopper is a background loop with an explicit lifecycle.
// *wal.GCLoop satisfies it.
type StartStopper interface {
	Start(ctx context.Context) error
	Stop()
	IsRunning() bool
}

// StartStopService adapts Start/Stop to suture's Serve. Stop blocks until
// the loop's goroutine has exited.
type StartStopService struct {
	loop StartStopper
	name string
}

// NewStartStopService wraps loop under name.
func NewStartStopService(name string, loop StartStopper) *StartStopService {
	return &StartStopService{loop: loop, name: name}
}

// NewCheckpointGCService supervises the checkpoint value-log GC loop.
func NewCheckpointGCService(loop StartStopper) *StartStopService {
	return NewStartStopService("checkpoint-gc", loop)
}

// Serve implements suture.Service.
func (s *StartStopService) Serve(ctx context.Context) error {
	if err := s.loop.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}

	<-ctx.Done()
	s.loop.Stop()

	return ctx.Err()
}

// String implements fmt.Stringer.
func (s *StartStopService) String() string {
	return s.name
}
