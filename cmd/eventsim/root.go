// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tomtom215/eventsim/internal/config"
	"github.com/tomtom215/eventsim/internal/logging"
)

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	configPath string
	envFile    string
	logLevel   string

	cfg *config.Config
}

// load reads .env, then the layered configuration, then initializes logging.
func (o *globalOptions) load() (*config.Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}

	// A missing .env file is the normal case outside development.
	if err := godotenv.Load(o.envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load %s: %w", o.envFile, err)
	}
	if o.configPath != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, o.configPath); err != nil {
			return nil, fmt.Errorf("set %s: %w", config.ConfigPathEnvVar, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	o.cfg = cfg
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "eventsim",
		Short: "Event recommendation and item similarity engine",
		Long: `eventsim consumes a stream of user interactions (VIEW, REGISTER, LIKE),
maintains an incremental item-item similarity model, persists interactions
and similarity scores, and answers recommendation queries over HTTP.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML config file (overrides CONFIG_PATH)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded into the environment")
	flags.StringVar(&opts.logLevel, "log-level", "", "override logging.level")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newAggregateCmd(opts))
	rootCmd.AddCommand(newWriteCmd(opts))
	rootCmd.AddCommand(newQueryCmd(opts))
	rootCmd.AddCommand(newIngestCmd(opts))
	rootCmd.AddCommand(newGetCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Version:  %s\n", version)
			fmt.Fprintf(out, "Commit:   %s\n", commit)
			fmt.Fprintf(out, "Built:    %s\n", date)
			return nil
		},
	}
}
