// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/eventsim/internal/logging"
)

// ErrNATSServerStopped reports that the embedded server died underneath
// the process.
var ErrNATSServerStopped = errors.New("embedded NATS server stopped")

// NATSServer is the health surface of *eventprocessor.EmbeddedServer.
type NATSServer interface {
	IsRunning() bool
	JetStreamEnabled() bool
}

// NATSWatchdogService watches the embedded NATS server. The server is
// started before the tree and shut down after it, so that pipeline loops can
// flush their final commits; this service only reports a dead server.
type NATSWatchdogService struct {
	server   NATSServer
	interval time.Duration
	name     string
}

// NewNATSWatchdogService checks server every interval (default 5s).
func NewNATSWatchdogService(server NATSServer, interval time.Duration) *NATSWatchdogService {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &NATSWatchdogService{server: server, interval: interval, name: "nats-watchdog"}
}

// Serve implements suture.Service. A stopped server cannot be restarted in
// place, so the service asks suture not to restart it.
func (s *NATSWatchdogService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.check(); err != nil {
			logging.Error().Err(err).Msg("Embedded NATS server unhealthy")
			return suture.ErrDoNotRestart
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *NATSWatchdogService) check() error {
	if !s.server.IsRunning() {
		return ErrNATSServerStopped
	}
	if !s.server.JetStreamEnabled() {
		return fmt.Errorf("%w: JetStream disabled", ErrNATSServerStopped)
	}
	return nil
}

// String implements fmt.Stringer.
func (s *NATSWatchdogService) String() string {
	return s.name
}
