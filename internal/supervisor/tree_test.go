// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/eventsim/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSupervisorTreeConstruction(t *testing.T) {
	t.Run("rejects nil logger", func(t *testing.T) {
		if _, err := NewSupervisorTree(nil, TreeConfig{}); !errors.Is(err, ErrNilLogger) {
			t.Errorf("error = %v, want ErrNilLogger", err)
		}
	})

	t.Run("applies default values for zero config", func(t *testing.T) {
		tree, err := NewSupervisorTree(quietLogger(), TreeConfig{})
		if err != nil {
			t.Fatalf("failed to create tree: %v", err)
		}
		if tree.Root() == nil {
			t.Fatal("root supervisor should not be nil")
		}
		if tree.config != DefaultTreeConfig() {
			t.Errorf("config = %+v, want defaults %+v", tree.config, DefaultTreeConfig())
		}
	})

	t.Run("converts koanf settings", func(t *testing.T) {
		got := TreeConfigFromSettings(config.SupervisorConfig{
			FailureThreshold: 3,
			FailureDecay:     10,
			FailureBackoff:   time.Second,
			ShutdownTimeout:  2 * time.Second,
		})
		want := TreeConfig{FailureThreshold: 3, FailureDecay: 10, FailureBackoff: time.Second, ShutdownTimeout: 2 * time.Second}
		if got != want {
			t.Errorf("TreeConfigFromSettings() = %+v, want %+v", got, want)
		}
	})
}

func TestSupervisorTreeLifecycle(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureBackoff:  50 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create tree: %v", err)
	}

	data := NewMockService("checkpoint-gc")
	pipeline := NewMockService("aggregator")
	api := NewMockService("http-server")
	tree.AddDataService(data)
	tree.AddPipelineService(pipeline)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for data.StartCount() == 0 || pipeline.StartCount() == 0 || api.StartCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("services did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}

	for _, svc := range []*MockService{data, pipeline, api} {
		if svc.StopCount() != svc.StartCount() {
			t.Errorf("%s: stops = %d, starts = %d", svc, svc.StopCount(), svc.StartCount())
		}
	}

	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatalf("UnstoppedServiceReport() error = %v", err)
	}
	if len(report) != 0 {
		t.Errorf("unstopped services = %v", report)
	}
}

func TestSupervisorTreeRestartsFailedService(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}

	flaky := NewMockService("aggregator")
	flaky.SetFailCount(2)
	steady := NewMockService("http-server")
	tree.AddPipelineService(flaky)
	tree.AddAPIService(steady)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(3 * time.Second)
	for flaky.StartCount() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("flaky service started %d times, want 3", flaky.StartCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
	if steady.StartCount() != 1 {
		t.Errorf("a failure in the pipeline layer restarted the api layer (%d starts)", steady.StartCount())
	}

	cancel()
	<-errCh
}

func TestSupervisorTreeDoNotRestart(t *testing.T) {
	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{FailureBackoff: 10 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}

	oneShot := NewMockService("one-shot")
	oneShot.SetError(suture.ErrDoNotRestart)
	tree.AddDataService(oneShot)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_ = tree.Serve(ctx)

	if oneShot.StartCount() != 1 {
		t.Errorf("starts = %d, want 1", oneShot.StartCount())
	}
}
