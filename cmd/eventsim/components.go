// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/tomtom215/eventsim/internal/aggregator"
	"github.com/tomtom215/eventsim/internal/api"
	"github.com/tomtom215/eventsim/internal/cache"
	"github.com/tomtom215/eventsim/internal/config"
	"github.com/tomtom215/eventsim/internal/database"
	"github.com/tomtom215/eventsim/internal/database/postgres"
	"github.com/tomtom215/eventsim/internal/eventprocessor"
	"github.com/tomtom215/eventsim/internal/ingest"
	"github.com/tomtom215/eventsim/internal/logging"
	"github.com/tomtom215/eventsim/internal/recommend/query"
	"github.com/tomtom215/eventsim/internal/supervisor"
	"github.com/tomtom215/eventsim/internal/supervisor/services"
	"github.com/tomtom215/eventsim/internal/wal"
	"github.com/tomtom215/eventsim/internal/writer"
)

// dataStore is everything the process needs from the durable store.
// *database.DB and *postgres.Store satisfy it.
type dataStore interface {
	query.Store
	writer.InteractionStore
	writer.SimilarityStore
	Ping(ctx context.Context) error
	Close() error
}

// components owns every resource opened for one run. Resources are released
// in reverse order of acquisition.
type components struct {
	cfg *config.Config

	store     dataStore
	embedded  *eventprocessor.EmbeddedServer
	conn      *eventprocessor.Connection
	publisher *eventprocessor.Publisher

	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

func newComponents(cfg *config.Config) *components {
	return &components{cfg: cfg}
}

func (c *components) onClose(name string, fn func() error) {
	c.closers = append(c.closers, namedCloser{name: name, close: fn})
}

func (c *components) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		cl := c.closers[i]
		if err := cl.close(); err != nil {
			logging.Error().Err(err).Str("resource", cl.name).Msg("Error closing resource")
		}
	}
	c.closers = nil
}

// build opens the resources r needs and adds its services to tree.
func (c *components) build(ctx context.Context, tree *supervisor.SupervisorTree, r roles, ingestRoute bool) error {
	if r.needsStore() {
		if err := c.openStore(); err != nil {
			return err
		}
	}
	if r.needsNATS() || ingestRoute {
		if err := c.openNATS(ctx, tree); err != nil {
			return err
		}
	}

	if r.aggregate {
		if err := c.addAggregator(ctx, tree); err != nil {
			return err
		}
	}
	if r.writeInteractions {
		if err := c.addInteractionWriter(ctx, tree); err != nil {
			return err
		}
	}
	if r.writeSimilarities {
		if err := c.addSimilarityWriter(ctx, tree); err != nil {
			return err
		}
	}
	if r.query {
		if err := c.addQueryServer(ctx, tree, ingestRoute); err != nil {
			return err
		}
	}
	return nil
}

// openStore opens the configured store driver.
func (c *components) openStore() error {
	var (
		store dataStore
		err   error
	)
	switch c.cfg.Database.Driver {
	case "postgres":
		store, err = postgres.New(&c.cfg.Database)
	default:
		store, err = database.New(&c.cfg.Database)
	}
	if err != nil {
		return fmt.Errorf("open %s store: %w", c.cfg.Database.Driver, err)
	}
	c.store = store
	c.onClose("store", store.Close)
	logging.Info().Str("driver", c.cfg.Database.Driver).Msg("Store opened")
	return nil
}

// openNATS starts the embedded server when configured, connects, provisions
// both streams and creates the shared publisher.
func (c *components) openNATS(ctx context.Context, tree *supervisor.SupervisorTree) error {
	natsCfg := c.cfg.NATS
	wmLogger := logging.NewWatermillAdapter()
	natsURL := natsCfg.URL

	if natsCfg.EmbeddedServer {
		serverCfg, err := embeddedServerConfig(natsCfg)
		if err != nil {
			return err
		}
		embedded, err := eventprocessor.NewEmbeddedServer(&serverCfg)
		if err != nil {
			return fmt.Errorf("start embedded NATS server: %w", err)
		}
		c.embedded = embedded
		c.onClose("embedded NATS server", func() error {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return embedded.Shutdown(shutdownCtx)
		})
		natsURL = embedded.ClientURL()
		tree.AddDataService(services.NewNATSWatchdogService(embedded, 0))
		logging.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	}

	connCfg := eventprocessor.DefaultConnConfig(natsURL, "eventsim")
	connCfg.ConnectTimeout = natsCfg.ConnectTimeout
	conn, err := eventprocessor.Connect(connCfg, wmLogger)
	if err != nil {
		return err
	}
	c.conn = conn
	c.onClose("NATS connection", conn.Close)

	if err := eventprocessor.EnsureStreams(ctx, conn.JS,
		eventprocessor.InteractionsStreamConfig(natsCfg.StreamMaxAge, natsCfg.DuplicateWindow),
		eventprocessor.SimilaritiesStreamConfig(natsCfg.StreamMaxAge, natsCfg.DuplicateWindow),
	); err != nil {
		return fmt.Errorf("provision streams: %w", err)
	}

	pubCfg := eventprocessor.DefaultPublisherConfig(natsURL)
	pubCfg.ConnectTimeout = natsCfg.ConnectTimeout
	publisher, err := eventprocessor.NewPublisher(pubCfg, natsCfg.Partitions, wmLogger)
	if err != nil {
		return err
	}
	publisher.SetCircuitBreaker(eventprocessor.NewCircuitBreaker(eventprocessor.DefaultCircuitBreakerConfig("nats-publisher")))
	c.publisher = publisher
	c.onClose("publisher", publisher.Close)
	return nil
}

// embeddedServerConfig listens on the host and port of nats.url.
func embeddedServerConfig(n config.NATSConfig) (eventprocessor.ServerConfig, error) {
	cfg := eventprocessor.DefaultServerConfig()
	u, err := url.Parse(n.URL)
	if err != nil {
		return cfg, fmt.Errorf("parse nats url %q: %w", n.URL, err)
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		return cfg, fmt.Errorf("nats url %q needs host:port: %w", n.URL, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return cfg, fmt.Errorf("nats url %q has invalid port: %w", n.URL, err)
	}
	cfg.Host = host
	cfg.Port = port
	if n.StoreDir != "" {
		cfg.StoreDir = n.StoreDir
	}
	if n.MaxMemory > 0 {
		cfg.JetStreamMaxMem = n.MaxMemory
	}
	if n.MaxStore > 0 {
		cfg.JetStreamMaxStore = n.MaxStore
	}
	return cfg, nil
}

// aggregatorConsumerConfig sizes MaxAckPending for every batch the pipeline
// can hold: one per queue slot on both channels plus one in each stage.
func aggregatorConsumerConfig(a config.AggregatorConfig) eventprocessor.ConsumerConfig {
	return eventprocessor.ConsumerConfig{
		Stream:        eventprocessor.InteractionsStream,
		Durable:       a.Durable,
		BatchSize:     a.BatchSize,
		PollTimeout:   a.PollTimeout,
		AckWait:       a.AckWait,
		MaxAckPending: a.BatchSize * (2*a.QueueDepth + 3),
	}
}

func writerConsumerConfig(stream, durable string, w config.WritersConfig) eventprocessor.ConsumerConfig {
	return eventprocessor.ConsumerConfig{
		Stream:      stream,
		Durable:     durable,
		BatchSize:   w.BatchSize,
		PollTimeout: w.PollTimeout,
		AckWait:     w.AckWait,
	}
}

func (c *components) addAggregator(ctx context.Context, tree *supervisor.SupervisorTree) error {
	aggCfg := c.cfg.Aggregator

	checkpoint, err := openCheckpoint(aggCfg.CheckpointPath)
	if err != nil {
		return err
	}
	c.onClose("checkpoint", checkpoint.Close)
	tree.AddDataService(services.NewCheckpointGCService(wal.NewGCLoop(checkpoint)))

	poller, err := eventprocessor.NewJetStreamPoller(ctx, c.conn.JS, aggregatorConsumerConfig(aggCfg))
	if err != nil {
		return err
	}
	committer := eventprocessor.NewCommitter(aggCfg.Durable, c.conn.NC.FlushWithContext)

	agg, err := aggregator.New(aggregator.Config{
		EmitRetries:   aggCfg.EmitRetries,
		EmitRetryWait: aggCfg.EmitRetryWait,
		QueueDepth:    aggCfg.QueueDepth,
	}, poller, committer, c.publisher, checkpoint)
	if err != nil {
		return err
	}
	tree.AddPipelineService(services.NewRunnerService("similarity-aggregator", agg))
	return nil
}

// openCheckpoint opens Badger at path. Without a path the checkpoint lives
// in memory: supervisor restarts keep state, process restarts do not.
func openCheckpoint(path string) (*wal.Checkpoint, error) {
	if path == "" {
		logging.Warn().Msg("aggregator.checkpoint_path is empty; state will not survive a process restart")
		return wal.OpenInMemory()
	}
	checkpoint, err := wal.Open(wal.DefaultConfig(path))
	if err != nil {
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	stats := checkpoint.Stats()
	logging.Info().Str("path", path).Int64("weights", stats.Weights).Uint64("batches", stats.Batches).Msg("Checkpoint opened")
	return checkpoint, nil
}

func (c *components) addInteractionWriter(ctx context.Context, tree *supervisor.SupervisorTree) error {
	w := c.cfg.Writers
	poller, err := eventprocessor.NewJetStreamPoller(ctx, c.conn.JS,
		writerConsumerConfig(eventprocessor.InteractionsStream, w.InteractionsDurable, w))
	if err != nil {
		return err
	}
	committer := eventprocessor.NewCommitter(w.InteractionsDurable, c.conn.NC.FlushWithContext)
	wr, err := writer.NewInteractionWriter(writerConfig(logInteractions, w), poller, committer, c.store)
	if err != nil {
		return err
	}
	tree.AddPipelineService(services.NewRunnerService("interactions-writer", wr))
	return nil
}

func (c *components) addSimilarityWriter(ctx context.Context, tree *supervisor.SupervisorTree) error {
	w := c.cfg.Writers
	poller, err := eventprocessor.NewJetStreamPoller(ctx, c.conn.JS,
		writerConsumerConfig(eventprocessor.SimilaritiesStream, w.SimilaritiesDurable, w))
	if err != nil {
		return err
	}
	committer := eventprocessor.NewCommitter(w.SimilaritiesDurable, c.conn.NC.FlushWithContext)
	wr, err := writer.NewSimilarityWriter(writerConfig(logSimilarities, w), poller, committer, c.store)
	if err != nil {
		return err
	}
	tree.AddPipelineService(services.NewRunnerService("similarities-writer", wr))
	return nil
}

func writerConfig(name string, w config.WritersConfig) writer.Config {
	cfg := writer.DefaultConfig(name)
	cfg.StoreRetries = w.StoreRetries
	cfg.StoreRetryWait = w.StoreRetryWait
	return cfg
}

// addQueryServer wires store → query service → optional cache → HTTP.
func (c *components) addQueryServer(ctx context.Context, tree *supervisor.SupervisorTree, ingestRoute bool) error {
	svc, err := query.NewService(c.store)
	if err != nil {
		return err
	}
	querier, err := c.wrapCache(ctx, svc)
	if err != nil {
		return err
	}

	var recorder api.Recorder
	if ingestRoute && c.publisher != nil {
		ing, err := ingest.New(c.publisher)
		if err != nil {
			return err
		}
		recorder = ing
	}

	checks := []api.ReadinessCheck{{Name: "store", Check: c.store.Ping}}
	if c.conn != nil {
		conn := c.conn
		checks = append(checks, api.ReadinessCheck{Name: "nats", Check: func(context.Context) error {
			if !conn.IsConnected() {
				return errors.New("not connected")
			}
			return nil
		}})
	}

	handler, err := api.NewHandler(querier, recorder, checks...)
	if err != nil {
		return err
	}
	router := api.NewRouter(handler, api.NewChiMiddleware(api.MiddlewareConfigFromServer(c.cfg.Server)))
	server := services.NewHTTPServer(c.cfg.Server, router)
	tree.AddAPIService(services.NewHTTPServerService(server, c.cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Bool("ingest", recorder != nil).Msg("HTTP server service added")
	return nil
}

// wrapCache puts the configured read-through cache in front of svc.
func (c *components) wrapCache(ctx context.Context, svc query.Querier) (query.Querier, error) {
	q := c.cfg.Query
	var store cache.Store
	switch q.CacheBackend {
	case config.CacheBackendMemory:
		store = cache.NewMemoryStore("query", q.CacheCapacity)
	case config.CacheBackendRedis:
		redisCfg := cache.DefaultRedisConfig(q.RedisAddr)
		redisCfg.Password = q.RedisPassword
		redisCfg.DB = q.RedisDB
		rs, err := cache.NewRedisStore(ctx, "query", redisCfg)
		if err != nil {
			return nil, fmt.Errorf("connect query cache: %w", err)
		}
		store = rs
	default:
		return svc, nil
	}
	c.onClose("query cache", store.Close)
	logging.Info().Str("backend", q.CacheBackend).Dur("ttl", q.CacheTTL).Msg("Query cache enabled")
	return query.NewCachedService(svc, store, q.CacheTTL)
}
