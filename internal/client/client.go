// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/eventsim/internal/config"
	"github.com/tomtom215/eventsim/internal/logging"
	"github.com/tomtom215/eventsim/internal/metrics"
	"github.com/tomtom215/eventsim/internal/recommend"
	"github.com/tomtom215/eventsim/internal/recommend/query"
)

const breakerName = "query-client"

// maxResponseBytes bounds a decoded response body.
const maxResponseBytes = 4 << 20

// errRetryable marks failures worth another attempt.
var errRetryable = errors.New("retryable")

// Client calls the query API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]recommend.ScoredItem]

	timeout   time.Duration
	retries   int
	retryWait time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client from cfg. A zero RateLimit disables rate limiting.
func New(cfg config.ClientConfig, opts ...Option) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("client: invalid base url %q", cfg.BaseURL)
	}
	if cfg.Retries < 1 {
		return nil, fmt.Errorf("client: retries must be at least 1, got %d", cfg.Retries)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("client: timeout must be positive, got %v", cfg.Timeout)
	}

	limit := rate.Inf
	burst := cfg.Burst
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
	}

	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(limit, burst),
		breaker:    newBreaker(),
		timeout:    cfg.Timeout,
		retries:    cfg.Retries,
		retryWait:  cfg.RetryWait,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func newBreaker() *gobreaker.CircuitBreaker[[]recommend.ScoredItem] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	return gobreaker.NewCircuitBreaker[[]recommend.ScoredItem](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// client errors say nothing about server health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, recommend.ErrInvalidArgument)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
		},
	})
}

// GetRecommendationsForUser calls GET /api/v1/recommendations/users/{userID}.
func (c *Client) GetRecommendationsForUser(ctx context.Context, userID int64, maxResults int) ([]recommend.ScoredItem, error) {
	path := "/api/v1/recommendations/users/" + strconv.FormatInt(userID, 10)
	q := url.Values{"max_results": {strconv.Itoa(maxResults)}}
	return c.call(ctx, query.OpRecommendations, http.MethodGet, path, q, nil)
}

// GetSimilarEvents calls GET /api/v1/recommendations/items/{itemID}/similar.
func (c *Client) GetSimilarEvents(ctx context.Context, itemID, userID int64, maxResults int) ([]recommend.ScoredItem, error) {
	path := "/api/v1/recommendations/items/" + strconv.FormatInt(itemID, 10) + "/similar"
	q := url.Values{
		"user_id":     {strconv.FormatInt(userID, 10)},
		"max_results": {strconv.Itoa(maxResults)},
	}
	return c.call(ctx, query.OpSimilarEvents, http.MethodGet, path, q, nil)
}

// GetInteractionsCount calls POST /api/v1/recommendations/interactions/count.
func (c *Client) GetInteractionsCount(ctx context.Context, itemIDs []int64) ([]recommend.ScoredItem, error) {
	if len(itemIDs) == 0 {
		return []recommend.ScoredItem{}, nil
	}
	body, err := json.Marshal(map[string][]int64{"item_ids": itemIDs})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return c.call(ctx, query.OpInteractionsCount, http.MethodPost, "/api/v1/recommendations/interactions/count", nil, body)
}

// call runs one operation through the breaker and falls back to an empty
// list when the server stays unavailable.
func (c *Client) call(ctx context.Context, op, method, path string, q url.Values, body []byte) ([]recommend.ScoredItem, error) {
	target := c.baseURL.JoinPath(path)
	target.RawQuery = q.Encode()

	items, err := c.breaker.Execute(func() ([]recommend.ScoredItem, error) {
		return c.withRetry(ctx, op, method, target.String(), body)
	})
	metrics.RecordClientRequest(op, err)

	switch {
	case err == nil:
		return items, nil
	case errors.Is(err, recommend.ErrInvalidArgument):
		return nil, err
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		metrics.RecordClientFallback(op)
		logging.Ctx(ctx).Warn().Err(err).Str("operation", op).Msg("Query API unavailable, using fallback")
		return []recommend.ScoredItem{}, nil
	}
}

func (c *Client) withRetry(ctx context.Context, op, method, target string, body []byte) ([]recommend.ScoredItem, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryWait):
			}
		}

		items, err := c.attempt(ctx, method, target, body)
		if err == nil {
			return items, nil
		}
		if !errors.Is(err, errRetryable) {
			return nil, err
		}
		lastErr = err
		logging.Ctx(ctx).Debug().
			Err(err).
			Str("operation", op).
			Int("attempt", attempt).
			Int("max_attempts", c.retries).
			Msg("Query API call failed")
	}
	return nil, fmt.Errorf("%s: %d attempts failed: %w", op, c.retries, lastErr)
}

func (c *Client) attempt(ctx context.Context, method, target string, body []byte) ([]recommend.ScoredItem, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := logging.RequestIDFromContext(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errRetryable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", errRetryable, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: status %d", errRetryable, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: decode response (status %d): %w", errRetryable, resp.StatusCode, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK && env.Success:
		if env.Data == nil {
			return []recommend.ScoredItem{}, nil
		}
		return env.Data, nil
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d: %s", errRetryable, resp.StatusCode, env.message())
	default:
		return nil, fmt.Errorf("%w: status %d: %s", recommend.ErrInvalidArgument, resp.StatusCode, env.message())
	}
}

// envelope mirrors the API response shape for list payloads.
type envelope struct {
	Success bool                   `json:"success"`
	Data    []recommend.ScoredItem `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e envelope) message() string {
	if e.Error == nil {
		return "no error details"
	}
	return e.Error.Code + ": " + e.Error.Message
}
