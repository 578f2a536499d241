// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type runnerFunc func(ctx context.Context) error

func (f runnerFunc) Run(ctx context.Context) error { return f(ctx) }

func TestRunnerService(t *testing.T) {
	t.Run("returns ctx error on shutdown", func(t *testing.T) {
		svc := NewRunnerService("aggregator", runnerFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		}))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Serve() = %v, want DeadlineExceeded", err)
		}
	})

	t.Run("wraps fatal loop errors", func(t *testing.T) {
		fatal := errors.New("publish retries exhausted")
		svc := NewRunnerService("aggregator", runnerFunc(func(context.Context) error { return fatal }))

		err := svc.Serve(context.Background())
		if !errors.Is(err, fatal) {
			t.Errorf("Serve() = %v, want wrapped fatal error", err)
		}
		if !strings.HasPrefix(err.Error(), "aggregator:") {
			t.Errorf("error %q should name the service", err)
		}
	})

	t.Run("early clean exit is a failure", func(t *testing.T) {
		svc := NewRunnerService("interaction-writer", runnerFunc(func(context.Context) error { return nil }))
		if err := svc.Serve(context.Background()); err == nil {
			t.Error("Serve() = nil, want error so the loop is restarted")
		}
		if svc.String() != "interaction-writer" {
			t.Errorf("String() = %q", svc.String())
		}
	})
}
