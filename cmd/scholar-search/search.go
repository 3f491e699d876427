// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scholar-search/internal/export"
	"github.com/pdiddy/scholar-search/internal/history"
	"github.com/pdiddy/scholar-search/internal/search"
	"github.com/pdiddy/scholar-search/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search every configured provider and rank the merged results",
	Long: `Search sends the query to the selected providers in parallel (at most
five at a time), merges records with the same title, enriches records that
lack an abstract or citation count, and ranks the results.

Results print as a table unless --format or --output says otherwise. The
output format follows the --output file extension (.csv, .json, .txt,
.yaml) when --format is not given.

Use --save to keep a reloadable copy of the search, and --load to render a
saved search again without contacting any provider.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringSlice("providers", nil, "providers to query (default: search.providers)")
	searchCmd.Flags().Int("limit", 0, "maximum results per provider (default: search.limit)")
	searchCmd.Flags().Int("min-year", 0, "earliest publication year (default: current year minus search.default_year_window)")
	searchCmd.Flags().Bool("all-years", false, "do not restrict publication years")
	searchCmd.Flags().Bool("open-access", false, "only return open-access works")
	searchCmd.Flags().StringP("format", "f", "", "output format: "+formatList())
	searchCmd.Flags().StringP("output", "o", "", "write results to this file instead of stdout")
	searchCmd.Flags().Bool("no-enrich", false, "skip the OpenAlex enrichment pass")
	searchCmd.Flags().Bool("no-history", false, "do not record this search in the history database")
	searchCmd.Flags().String("save", "", "save the query and results to a YAML file")
	searchCmd.Flags().String("load", "", "render a previously saved YAML file instead of searching")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if path, _ := cmd.Flags().GetString("load"); path != "" {
		qf, err := export.ReadQueryFile(path)
		if err != nil {
			return err
		}
		return render(cmd, qf.Query, qf.Output())
	}

	q, err := queryFromFlags(cmd, args, cfg.Search, time.Now())
	if err != nil {
		return err
	}

	if noEnrich, _ := cmd.Flags().GetBool("no-enrich"); noEnrich {
		cfg.Enrichment.Enabled = false
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agg := buildAggregator(cfg, keys, logger, nil)
	out, err := agg.Search(ctx, q)
	if err != nil {
		return err
	}
	for _, e := range out.ProviderErrors {
		logger.Warn().Str("search_id", out.SearchID).Msg(e)
	}

	if noHistory, _ := cmd.Flags().GetBool("no-history"); cfg.History.Enabled && !noHistory {
		recordHistory(ctx, q, out)
	}

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if err := export.WriteQueryFile(path, q, out); err != nil {
			return err
		}
		logger.Info().Str("path", path).Msg("saved search")
	}

	return render(cmd, q, out)
}

// queryFromFlags builds the query from the arguments and flags, filling
// unset values from the search configuration.
func queryFromFlags(cmd *cobra.Command, args []string, sc types.SearchConfig, now time.Time) (types.Query, error) {
	q := types.Query{
		Text:           strings.TrimSpace(strings.Join(args, " ")),
		Limit:          sc.Limit,
		Providers:      sc.Providers,
		OpenAccessOnly: sc.OpenAccessOnly,
	}
	if q.Text == "" {
		return q, fmt.Errorf("%w: provide a search term", search.ErrEmptyQuery)
	}

	if providers, _ := cmd.Flags().GetStringSlice("providers"); len(providers) > 0 {
		q.Providers = providers
	}
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
		q.Limit = limit
	}
	if oa, _ := cmd.Flags().GetBool("open-access"); oa {
		q.OpenAccessOnly = true
	}

	minYear, _ := cmd.Flags().GetInt("min-year")
	allYears, _ := cmd.Flags().GetBool("all-years")
	switch {
	case allYears:
		q.MinYear = 0
	case minYear > 0:
		q.MinYear = minYear
	case sc.DefaultYearWindow > 0:
		q.MinYear = now.Year() - sc.DefaultYearWindow
	}
	return q, nil
}

// render writes out to --output, or to stdout as a table by default.
func render(cmd *cobra.Command, q types.Query, out search.SearchOutput) error {
	formatName, _ := cmd.Flags().GetString("format")
	var f export.Format
	if formatName != "" {
		var err error
		if f, err = export.ParseFormat(formatName); err != nil {
			return err
		}
	}

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		if err := export.WriteFile(path, f, q, out); err != nil {
			return err
		}
		logger.Info().Str("path", path).Int("results", len(out.Results)).Msg("exported results")
		return nil
	}

	if f == "" {
		f = export.FormatTable
	}
	return export.Write(cmd.OutOrStdout(), f, q, out)
}

func recordHistory(ctx context.Context, q types.Query, out search.SearchOutput) {
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		logger.Warn().Err(err).Msg("history unavailable")
		return
	}
	defer store.Close()
	if err := store.Record(ctx, q, out); err != nil {
		logger.Warn().Err(err).Msg("recording history failed")
	}
}

func formatList() string {
	names := make([]string, len(export.Formats))
	for i, f := range export.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
