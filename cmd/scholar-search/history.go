// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scholar-search/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history [filter]",
	Short: "List recent searches",
	Long: `History lists searches recorded in the local history database, newest
first. An optional filter keeps searches whose query contains it.`,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <search-id>",
	Short: "Render the results of a recorded search",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <search-id>",
	Short: "Remove a recorded search",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Delete(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", history.DefaultRecent, "maximum number of searches to list")
	historyShowCmd.Flags().StringP("format", "f", "", "output format: "+formatList())
	historyShowCmd.Flags().StringP("output", "o", "", "write results to this file instead of stdout")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(context.Background(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(w, "No searches recorded.")
		return nil
	}
	fmt.Fprintf(w, "%-36s  %-16s  %-7s  %s\n", "ID", "When", "Results", "Query")
	for _, e := range entries {
		fmt.Fprintf(w, "%-36s  %-16s  %-7d  %s\n",
			e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Results, e.Query)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	q, out, err := store.Output(context.Background(), args[0])
	if err != nil {
		return err
	}
	return render(cmd, q, out)
}
