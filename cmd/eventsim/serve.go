// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/eventsim/internal/config"
	"github.com/tomtom215/eventsim/internal/logging"
	"github.com/tomtom215/eventsim/internal/supervisor"
)

// roles selects the components a process runs.
type roles struct {
	aggregate         bool
	writeInteractions bool
	writeSimilarities bool
	query             bool
}

func (r roles) needsNATS() bool {
	return r.aggregate || r.writeInteractions || r.writeSimilarities
}

func (r roles) needsStore() bool {
	return r.writeInteractions || r.writeSimilarities || r.query
}

func (r roles) String() string {
	return fmt.Sprintf("aggregate=%t write_interactions=%t write_similarities=%t query=%t",
		r.aggregate, r.writeInteractions, r.writeSimilarities, r.query)
}

// Values accepted by write --log.
const (
	logInteractions = "interactions"
	logSimilarities = "similarities"
	logAll          = "all"
)

func writerRoles(log string) (roles, error) {
	switch log {
	case logInteractions:
		return roles{writeInteractions: true}, nil
	case logSimilarities:
		return roles{writeSimilarities: true}, nil
	case logAll:
		return roles{writeInteractions: true, writeSimilarities: true}, nil
	default:
		return roles{}, fmt.Errorf("--log must be %s, %s or %s, got %q", logInteractions, logSimilarities, logAll, log)
	}
}

func newServeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the aggregator, both store writers and the query service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoles(cmd.Context(), opts, roles{
				aggregate:         true,
				writeInteractions: true,
				writeSimilarities: true,
				query:             true,
			})
		},
	}
}

func newAggregateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "aggregate",
		Short: "Run the similarity aggregator",
		Long: `Consume the interaction log, maintain the similarity state and publish
similarity updates. Run exactly one aggregator per deployment: its state is
not sharded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoles(cmd.Context(), opts, roles{aggregate: true})
		},
	}
}

func newWriteCmd(opts *globalOptions) *cobra.Command {
	var log string
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Run the interaction and/or similarity store writers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := writerRoles(log)
			if err != nil {
				return err
			}
			return runRoles(cmd.Context(), opts, r)
		},
	}
	cmd.Flags().StringVar(&log, "log", logAll, "log to replicate: interactions, similarities or all")
	return cmd
}

func newQueryCmd(opts *globalOptions) *cobra.Command {
	var ingest bool
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run the HTTP query service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			// the ingest route needs a broker connection
			if ingest {
				cfg.NATS.EmbeddedServer = false
			}
			return run(cmd.Context(), cfg, roles{query: true}, ingest)
		},
	}
	cmd.Flags().BoolVar(&ingest, "ingest", false, "also mount POST /api/v1/interactions (connects to nats.url)")
	return cmd
}

func runRoles(ctx context.Context, opts *globalOptions, r roles) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	return run(ctx, cfg, r, r.query)
}

// run builds the selected components, serves them under the supervisor tree
// until SIGINT/SIGTERM, then releases resources in reverse order.
func run(parent context.Context, cfg *config.Config, r roles, ingest bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("roles", r.String()).Msg("Starting eventsim")

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFromSettings(cfg.Supervisor))
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	c := newComponents(cfg)
	defer c.close()

	if err := c.build(ctx, tree, r, ingest); err != nil {
		return err
	}

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
		return serveErr
	}
	logging.Info().Msg("eventsim stopped gracefully")
	return nil
}
