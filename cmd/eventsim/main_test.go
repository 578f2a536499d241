// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomtom215/eventsim/internal/config"
)

func TestWriterRoles(t *testing.T) {
	tests := []struct {
		log     string
		want    roles
		wantErr bool
	}{
		{log: "interactions", want: roles{writeInteractions: true}},
		{log: "similarities", want: roles{writeSimilarities: true}},
		{log: "all", want: roles{writeInteractions: true, writeSimilarities: true}},
		{log: "everything", wantErr: true},
		{log: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.log, func(t *testing.T) {
			got, err := writerRoles(tt.log)
			if (err != nil) != tt.wantErr {
				t.Fatalf("writerRoles(%q) error = %v, wantErr %v", tt.log, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("writerRoles(%q) = %+v, want %+v", tt.log, got, tt.want)
			}
		})
	}
}

func TestRoles_Needs(t *testing.T) {
	tests := []struct {
		name      string
		r         roles
		wantNATS  bool
		wantStore bool
	}{
		{"aggregate only", roles{aggregate: true}, true, false},
		{"query only", roles{query: true}, false, true},
		{"writer", roles{writeSimilarities: true}, true, true},
		{"none", roles{}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.needsNATS(); got != tt.wantNATS {
				t.Errorf("needsNATS() = %v, want %v", got, tt.wantNATS)
			}
			if got := tt.r.needsStore(); got != tt.wantStore {
				t.Errorf("needsStore() = %v, want %v", got, tt.wantStore)
			}
		})
	}
}

func TestEmbeddedServerConfig(t *testing.T) {
	n := config.Default().NATS
	n.URL = "nats://127.0.0.1:4333"
	n.StoreDir = "/tmp/js"
	n.MaxMemory = 1 << 20

	cfg, err := embeddedServerConfig(n)
	if err != nil {
		t.Fatalf("embeddedServerConfig() error = %v", err)
	}
	if cfg.Host != "127.0.0.1" || cfg.Port != 4333 {
		t.Errorf("listen = %s:%d, want 127.0.0.1:4333", cfg.Host, cfg.Port)
	}
	if cfg.StoreDir != "/tmp/js" {
		t.Errorf("StoreDir = %q, want /tmp/js", cfg.StoreDir)
	}
	if cfg.JetStreamMaxMem != 1<<20 {
		t.Errorf("JetStreamMaxMem = %d, want %d", cfg.JetStreamMaxMem, 1<<20)
	}

	for _, bad := range []string{"nats://localhost", "nats://localhost:port", "://"} {
		n.URL = bad
		if _, err := embeddedServerConfig(n); err == nil {
			t.Errorf("embeddedServerConfig(%q) error = nil, want error", bad)
		}
	}
}

func TestConsumerConfigsValidate(t *testing.T) {
	cfg := config.Default()

	agg := aggregatorConsumerConfig(cfg.Aggregator)
	if err := agg.Validate(); err != nil {
		t.Errorf("aggregator consumer config invalid: %v", err)
	}
	if want := cfg.Aggregator.BatchSize * (2*cfg.Aggregator.QueueDepth + 3); agg.MaxAckPending != want {
		t.Errorf("MaxAckPending = %d, want %d", agg.MaxAckPending, want)
	}

	w := writerConsumerConfig("SIMILARITIES", cfg.Writers.SimilaritiesDurable, cfg.Writers)
	if err := w.Validate(); err != nil {
		t.Errorf("writer consumer config invalid: %v", err)
	}
}

func TestWriterConfig(t *testing.T) {
	w := config.Default().Writers
	w.StoreRetries = 9
	got := writerConfig(logInteractions, w)
	if got.Name != logInteractions || got.StoreRetries != 9 || got.StoreRetryWait != w.StoreRetryWait {
		t.Errorf("writerConfig() = %+v", got)
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(out.String(), "Version:  dev") {
		t.Errorf("output = %q, want version line", out.String())
	}
}

func TestGetCountCommand(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/recommendations/interactions/count" {
			http.NotFound(w, r)
			return
		}
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[{"item_id":1,"score":1.0},{"item_id":2,"score":0.4}]}`))
	}))
	defer srv.Close()

	opts := &globalOptions{cfg: config.Default()}
	cmd := newGetCmd(opts)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"count", "--url", srv.URL, "--items", "1,2"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("get count error = %v", err)
	}

	if !strings.Contains(gotBody, `[1,2]`) {
		t.Errorf("request body = %q, want item ids [1,2]", gotBody)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("output lines = %d, want 3: %q", len(lines), out.String())
	}
	if f := strings.Fields(lines[1]); len(f) != 2 || f[0] != "1" || f[1] != "1.0000" {
		t.Errorf("first row = %q, want item 1 score 1.0000", lines[1])
	}
	if f := strings.Fields(lines[2]); len(f) != 2 || f[0] != "2" || f[1] != "0.4000" {
		t.Errorf("second row = %q, want item 2 score 0.4000", lines[2])
	}
}

func TestGetRecommendationsCommand_RequiresUser(t *testing.T) {
	opts := &globalOptions{cfg: config.Default()}
	cmd := newGetCmd(opts)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"recommendations"})
	if err := cmd.Execute(); err == nil {
		t.Error("get recommendations without --user error = nil, want error")
	}
}
