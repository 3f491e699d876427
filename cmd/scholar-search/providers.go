// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the supported providers in deduplication priority order",
	Long: `Providers lists every registered source. When two sources return the
same title, the copy from the source listed first is kept. Providers marked
with * are queried when a search does not name any.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		agg := buildAggregator(cfg, keys, logger, nil)
		priority := agg.Priority()
		w := cmd.OutOrStdout()

		names := agg.Providers()
		slices.SortStableFunc(names, func(a, b string) int {
			return priority.Rank(a) - priority.Rank(b)
		})
		for i, name := range names {
			marker := " "
			if slices.Contains(cfg.Search.Providers, name) {
				marker = "*"
			}
			fmt.Fprintf(w, "%s %d. %s\n", marker, i+1, name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
