// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tomtom215/eventsim/internal/client"
	"github.com/tomtom215/eventsim/internal/recommend"
)

// getOptions are shared by the get subcommands.
type getOptions struct {
	global     *globalOptions
	baseURL    string
	maxResults int
}

func (o *getOptions) client() (*client.Client, error) {
	cfg, err := o.global.load()
	if err != nil {
		return nil, err
	}
	clientCfg := cfg.Client
	if o.baseURL != "" {
		clientCfg.BaseURL = o.baseURL
	}
	return client.New(clientCfg)
}

func newGetCmd(opts *globalOptions) *cobra.Command {
	o := &getOptions{global: opts}
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Query a running query service",
		Long: `Call the query service at client.base_url with the same retry, timeout
and fallback policy the domain services use. An unreachable service yields
an empty result, not an error.`,
	}
	cmd.PersistentFlags().StringVar(&o.baseURL, "url", "", "query service base URL (overrides client.base_url)")
	cmd.PersistentFlags().IntVar(&o.maxResults, "max", 10, "maximum number of results")

	cmd.AddCommand(newGetRecommendationsCmd(o))
	cmd.AddCommand(newGetSimilarCmd(o))
	cmd.AddCommand(newGetCountCmd(o))
	return cmd
}

func newGetRecommendationsCmd(o *getOptions) *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "recommendations",
		Short: "Items recommended for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			items, err := c.GetRecommendationsForUser(cmd.Context(), userID, o.maxResults)
			return printItems(cmd.OutOrStdout(), items, err)
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user id (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newGetSimilarCmd(o *getOptions) *cobra.Command {
	var itemID, userID int64
	cmd := &cobra.Command{
		Use:   "similar",
		Short: "Items similar to an item that the user has not seen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			items, err := c.GetSimilarEvents(cmd.Context(), itemID, userID, o.maxResults)
			return printItems(cmd.OutOrStdout(), items, err)
		},
	}
	cmd.Flags().Int64Var(&itemID, "item", 0, "item id (required)")
	cmd.Flags().Int64Var(&userID, "user", 0, "user id (required)")
	_ = cmd.MarkFlagRequired("item")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newGetCountCmd(o *getOptions) *cobra.Command {
	var itemIDs []int64
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Rating-weighted interaction totals per item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			items, err := c.GetInteractionsCount(cmd.Context(), itemIDs)
			return printItems(cmd.OutOrStdout(), items, err)
		},
	}
	cmd.Flags().Int64SliceVar(&itemIDs, "items", nil, "comma-separated item ids (required)")
	_ = cmd.MarkFlagRequired("items")
	return cmd
}

func printItems(w io.Writer, items []recommend.ScoredItem, err error) error {
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tSCORE")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%.4f\n", it.ItemID, it.Score)
	}
	return tw.Flush()
}
