// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/eventsim/internal/api"
	"github.com/tomtom215/eventsim/internal/config"
	"github.com/tomtom215/eventsim/internal/metrics"
	"github.com/tomtom215/eventsim/internal/recommend"
	"github.com/tomtom215/eventsim/internal/recommend/query"
)

type stubQuerier struct {
	items []recommend.ScoredItem
}

func (s stubQuerier) GetRecommendationsForUser(_ context.Context, userID int64, maxResults int) ([]recommend.ScoredItem, error) {
	return s.items, nil
}

func (s stubQuerier) GetSimilarEvents(_ context.Context, itemID, userID int64, maxResults int) ([]recommend.ScoredItem, error) {
	return s.items, nil
}

func (s stubQuerier) GetInteractionsCount(_ context.Context, itemIDs []int64) ([]recommend.ScoredItem, error) {
	out := make([]recommend.ScoredItem, 0, len(itemIDs))
	for _, id := range itemIDs {
		out = append(out, recommend.ScoredItem{ItemID: id, Score: float64(id) / 10})
	}
	return out, nil
}

var _ query.Querier = (*Client)(nil)

func testConfig(baseURL string) config.ClientConfig {
	return config.ClientConfig{
		BaseURL:   baseURL,
		Timeout:   time.Second,
		Retries:   3,
		RetryWait: time.Millisecond,
	}
}

func newTestClient(t *testing.T, baseURL string, mutate ...func(*config.ClientConfig)) *Client {
	t.Helper()
	cfg := testConfig(baseURL)
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

// countingServer answers with the scripted statuses in order, repeating the
// last one, and counts requests.
func countingServer(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(hits.Add(1))
		status := statuses[len(statuses)-1]
		if n <= len(statuses) {
			status = statuses[n-1]
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"data":    []recommend.ScoredItem{{ItemID: 2, Score: 0.632}},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   map[string]string{"code": "X", "message": http.StatusText(status)},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.ClientConfig)
	}{
		{"relative url", func(c *config.ClientConfig) { c.BaseURL = "/api" }},
		{"zero retries", func(c *config.ClientConfig) { c.Retries = 0 }},
		{"zero timeout", func(c *config.ClientConfig) { c.Timeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig("http://127.0.0.1:1")
			tt.mutate(&cfg)
			if _, err := New(cfg); err == nil {
				t.Error("New() should fail")
			}
		})
	}
}

func TestClient_AgainstAPIRouter(t *testing.T) {
	h, err := api.NewHandler(stubQuerier{items: []recommend.ScoredItem{{ItemID: 2, Score: 0.632}}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(api.NewRouter(h, nil))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	recs, err := c.GetRecommendationsForUser(ctx, 1, 10)
	if err != nil {
		t.Fatalf("GetRecommendationsForUser() error = %v", err)
	}
	if len(recs) != 1 || recs[0].ItemID != 2 || recs[0].Score != 0.632 {
		t.Errorf("recommendations = %+v", recs)
	}

	similar, err := c.GetSimilarEvents(ctx, 1, 5, 10)
	if err != nil {
		t.Fatalf("GetSimilarEvents() error = %v", err)
	}
	if len(similar) != 1 {
		t.Errorf("similar = %+v", similar)
	}

	counts, err := c.GetInteractionsCount(ctx, []int64{1, 2})
	if err != nil {
		t.Fatalf("GetInteractionsCount() error = %v", err)
	}
	if len(counts) != 2 || counts[1].ItemID != 2 || counts[1].Score != 0.2 {
		t.Errorf("counts = %+v", counts)
	}

	// invalid arguments come back as errors
	_, err = c.GetRecommendationsForUser(ctx, 1, 0)
	if !errors.Is(err, recommend.ErrInvalidArgument) {
		t.Errorf("max_results=0 error = %v, want ErrInvalidArgument", err)
	}
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	srv, hits := countingServer(t, http.StatusServiceUnavailable, http.StatusOK)
	c := newTestClient(t, srv.URL)

	items, err := c.GetRecommendationsForUser(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if len(items) != 1 {
		t.Errorf("items = %+v", items)
	}
	if hits.Load() != 2 {
		t.Errorf("attempts = %d, want 2", hits.Load())
	}
}

func TestClient_FallbackOnExhaustion(t *testing.T) {
	srv, hits := countingServer(t, http.StatusServiceUnavailable)
	c := newTestClient(t, srv.URL)

	fallbacks := metrics.ClientFallbacks.WithLabelValues(query.OpSimilarEvents)
	before := testutil.ToFloat64(fallbacks)

	items, err := c.GetSimilarEvents(context.Background(), 1, 2, 10)
	if err != nil {
		t.Fatalf("exhaustion should fall back, got error %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("fallback = %#v, want empty non-nil list", items)
	}
	if hits.Load() != 3 {
		t.Errorf("attempts = %d, want 3", hits.Load())
	}
	if got := testutil.ToFloat64(fallbacks) - before; got != 1 {
		t.Errorf("fallbacks recorded = %v, want 1", got)
	}
}

func TestClient_ClientErrorsAreNotRetried(t *testing.T) {
	srv, hits := countingServer(t, http.StatusBadRequest)
	c := newTestClient(t, srv.URL)

	_, err := c.GetRecommendationsForUser(context.Background(), 1, 10)
	if !errors.Is(err, recommend.ErrInvalidArgument) {
		t.Fatalf("error = %v, want ErrInvalidArgument", err)
	}
	if hits.Load() != 1 {
		t.Errorf("attempts = %d, want 1", hits.Load())
	}
}

func TestClient_UnreachableServerFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url)
	items, err := c.GetRecommendationsForUser(context.Background(), 1, 10)
	if err != nil || len(items) != 0 {
		t.Errorf("got %v, %v; want empty fallback", items, err)
	}
}

func TestClient_BreakerOpens(t *testing.T) {
	srv, hits := countingServer(t, http.StatusInternalServerError)
	c := newTestClient(t, srv.URL, func(cfg *config.ClientConfig) { cfg.Retries = 1 })
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := c.GetRecommendationsForUser(ctx, 1, 10); err != nil {
			t.Fatalf("call %d error = %v", i, err)
		}
	}
	if c.breaker.State() != gobreaker.StateOpen {
		t.Fatalf("breaker state = %v, want open", c.breaker.State())
	}

	before := hits.Load()
	items, err := c.GetRecommendationsForUser(ctx, 1, 10)
	if err != nil || len(items) != 0 {
		t.Errorf("open breaker got %v, %v; want empty fallback", items, err)
	}
	if hits.Load() != before {
		t.Error("open breaker should not reach the server")
	}
}

func TestClient_EmptyCountRequestSkipsNetwork(t *testing.T) {
	srv, hits := countingServer(t, http.StatusOK)
	c := newTestClient(t, srv.URL)

	items, err := c.GetInteractionsCount(context.Background(), nil)
	if err != nil || len(items) != 0 {
		t.Errorf("got %v, %v", items, err)
	}
	if hits.Load() != 0 {
		t.Errorf("requests = %d, want 0", hits.Load())
	}
}

func TestClient_CanceledContext(t *testing.T) {
	srv, _ := countingServer(t, http.StatusServiceUnavailable)
	c := newTestClient(t, srv.URL, func(cfg *config.ClientConfig) { cfg.RetryWait = time.Minute })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.GetRecommendationsForUser(ctx, 1, 10)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestClient_RateLimited(t *testing.T) {
	srv, hits := countingServer(t, http.StatusOK)
	c := newTestClient(t, srv.URL, func(cfg *config.ClientConfig) {
		cfg.RateLimit = 0.001
		cfg.Burst = 1
	})

	if _, err := c.GetRecommendationsForUser(context.Background(), 1, 10); err != nil {
		t.Fatalf("first call error = %v", err)
	}

	// the limiter cannot admit the call before the deadline, so it degrades
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	items, err := c.GetRecommendationsForUser(ctx, 1, 10)
	if err != nil || len(items) != 0 {
		t.Errorf("throttled call got %v, %v; want empty fallback", items, err)
	}
	if hits.Load() != 1 {
		t.Errorf("requests = %d, want 1", hits.Load())
	}
}
