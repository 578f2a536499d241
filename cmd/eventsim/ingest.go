// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/eventsim/internal/eventprocessor"
	"github.com/tomtom215/eventsim/internal/ingest"
	"github.com/tomtom215/eventsim/internal/logging"
)

// ingestTimeout bounds connect, stream provisioning and publish.
const ingestTimeout = 30 * time.Second

func newIngestCmd(opts *globalOptions) *cobra.Command {
	var (
		raw       ingest.RawAction
		timestamp string
	)
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Append one interaction event to the interaction log",
		Long: `Validate one user action and publish it to the interaction log at
nats.url. The broker must already be running (for example "eventsim serve").`,
		Example: `  eventsim ingest --user 7 --item 42 --action LIKE
  eventsim ingest --user 7 --item 42 --action view --timestamp 2026-01-02T15:04:05Z`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if timestamp != "" {
				ts, err := time.Parse(time.RFC3339, timestamp)
				if err != nil {
					return fmt.Errorf("--timestamp must be RFC3339: %w", err)
				}
				raw.Timestamp = &ts
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), ingestTimeout)
			defer cancel()

			wmLogger := logging.NewWatermillAdapter()
			conn, err := eventprocessor.Connect(eventprocessor.DefaultConnConfig(cfg.NATS.URL, "eventsim-ingest"), wmLogger)
			if err != nil {
				return err
			}
			defer func() {
				if err := conn.Close(); err != nil {
					logging.Warn().Err(err).Msg("Error closing NATS connection")
				}
			}()
			if err := eventprocessor.EnsureStreams(ctx, conn.JS,
				eventprocessor.InteractionsStreamConfig(cfg.NATS.StreamMaxAge, cfg.NATS.DuplicateWindow),
			); err != nil {
				return fmt.Errorf("provision interaction stream: %w", err)
			}

			publisher, err := eventprocessor.NewPublisher(eventprocessor.DefaultPublisherConfig(cfg.NATS.URL), cfg.NATS.Partitions, wmLogger)
			if err != nil {
				return err
			}
			defer func() {
				if err := publisher.Close(); err != nil {
					logging.Warn().Err(err).Msg("Error closing publisher")
				}
			}()

			ing, err := ingest.New(publisher)
			if err != nil {
				return err
			}
			receipt, err := ing.Record(ctx, raw)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(receipt)
		},
	}

	flags := cmd.Flags()
	flags.Int64Var(&raw.UserID, "user", 0, "user id (required)")
	flags.Int64Var(&raw.ItemID, "item", 0, "item id (required)")
	flags.StringVar(&raw.Action, "action", "", "VIEW, REGISTER or LIKE (case-insensitive)")
	flags.StringVar(&timestamp, "timestamp", "", "RFC3339 event time, defaults to now")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("item")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}
