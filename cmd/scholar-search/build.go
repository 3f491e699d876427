// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/rs/zerolog"

	"github.com/pdiddy/scholar-search/internal/httputil"
	"github.com/pdiddy/scholar-search/internal/observability"
	"github.com/pdiddy/scholar-search/internal/search"
	"github.com/pdiddy/scholar-search/internal/secrets"
	"github.com/pdiddy/scholar-search/pkg/types"
)

// buildProviders returns one adapter per supported source. Each adapter
// gets its own rate limiter so a slow source cannot starve the others.
func buildProviders(c types.Config, k secrets.Keys) []search.Provider {
	transport := func() search.Transport {
		return search.NewTransport(c.Search.HTTPConfig, httputil.NewRateLimiter(c.Search.RateLimit, 1))
	}
	return []search.Provider{
		&search.PubMedProvider{Transport: transport(), APIKey: k.NCBI},
		&search.SemanticScholarProvider{
			Transport:     transport(),
			APIKey:        k.SemanticScholar,
			FieldsOfStudy: c.Search.SemanticFieldsOfStudy,
		},
		&search.EuropePMCProvider{Transport: transport()},
		&search.OpenAlexProvider{Transport: transport(), Email: k.OpenAlexEmail},
		&search.PLOSProvider{Transport: transport(), APIKey: k.PLOS},
		&search.ArxivProvider{Transport: transport()},
	}
}

// buildAggregator wires the providers, the OpenAlex enricher, logging, and
// metrics into one Aggregator. metrics may be nil.
func buildAggregator(c types.Config, k secrets.Keys, log zerolog.Logger, metrics *observability.Metrics) *search.Aggregator {
	var enricher *search.Enricher
	if c.Enrichment.Enabled {
		lookup := &search.OpenAlexLookup{
			Transport: search.NewTransport(c.Search.HTTPConfig, httputil.NewRateLimiter(c.Search.RateLimit, 1)),
			Email:     k.OpenAlexEmail,
		}
		enricher = search.NewEnricher(lookup, c.Enrichment, log, metrics)
	}

	return search.New(search.Options{
		Concurrency:     c.Search.Concurrency,
		ProviderTimeout: c.Search.ProviderTimeout,
		DispatchTimeout: c.Search.DispatchTimeout,
		Priority:        search.Priority(c.Search.Priority),
		Enricher:        enricher,
		Logger:          log,
		Metrics:         metrics,
	}, buildProviders(c, k)...)
}
