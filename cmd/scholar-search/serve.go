// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/pdiddy/scholar-search/internal/history"
	"github.com/pdiddy/scholar-search/internal/observability"
	"github.com/pdiddy/scholar-search/internal/server"
	"github.com/pdiddy/scholar-search/pkg/types"
)

const metricsNamespace = "scholar_search"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search API over HTTP",
	Long: `Serve exposes the aggregator over HTTP:

  GET /healthz                 liveness
  GET /providers               registered providers
  GET /search?q=...            run a search (providers, limit, min_year,
                               open_access, format=csv)
  GET /history[/{id}]          recorded searches, when history is enabled
  GET /metrics                 Prometheus metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default: server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Server.Addr
	if a, _ := cmd.Flags().GetString("addr"); a != "" {
		addr = a
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(metricsNamespace, reg)

	opts := server.Options{
		Addr:            addr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Defaults: types.Query{
			Limit:          cfg.Search.Limit,
			Providers:      cfg.Search.Providers,
			OpenAccessOnly: cfg.Search.OpenAccessOnly,
		},
		Gatherer: reg,
		Logger:   logger,
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.History = store
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(buildAggregator(cfg, keys, logger, metrics), opts)
	return srv.ListenAndServe(ctx)
}
