// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search sends one query to several bibliographic providers at once
// and returns a single deduplicated, enriched, and ranked result list.
//
// The pipeline is: dispatch (concurrent provider calls, each isolated) →
// merge (title deduplication by source priority) → enrich (DOI lookups
// that backfill missing fields) → rank (keyword relevance, then citations).
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/scholar-search/internal/observability"
	"github.com/pdiddy/scholar-search/pkg/types"
)

// ErrEmptyQuery is returned by Search when the query text is blank. It is
// the only error Search reports; provider and enrichment failures only
// reduce the result set.
var ErrEmptyQuery = errors.New("query is empty")

// Provider searches a single bibliographic service. Each service (PubMed,
// Semantic Scholar, ...) implements this interface and translates the
// query into its own request format.
//
// Search returns at most q.Limit records. Errors are reported to the
// aggregator, which logs them and carries on without that provider's
// results; they never reach the aggregator's caller.
type Provider interface {
	Name() string
	Search(ctx context.Context, q types.Query) ([]types.RawRecord, error)
}

// Options configures an Aggregator. Zero values select the defaults.
type Options struct {
	// Concurrency caps the number of providers queried at once (default 5).
	Concurrency int

	// ProviderTimeout bounds each provider call (default 8s).
	ProviderTimeout time.Duration

	// DispatchTimeout abandons providers still running after this long.
	// Zero means no ceiling beyond the caller's context.
	DispatchTimeout time.Duration

	// Priority orders sources for deduplication (default DefaultPriority).
	Priority Priority

	// Enricher backfills missing fields; nil disables enrichment.
	Enricher *Enricher

	Logger  zerolog.Logger
	Metrics *observability.Metrics
}

const (
	defaultConcurrency     = 5
	defaultProviderTimeout = 8 * time.Second
)

// Aggregator owns the registered providers and runs searches across them.
// One Aggregator is built at startup and shared; Search is safe for
// concurrent use and keeps no state between calls.
type Aggregator struct {
	mu        sync.RWMutex
	providers map[string]Provider
	names     []string

	opts     Options
	validate *validator.Validate
}

// New returns an Aggregator with the given providers registered.
func New(opts Options, providers ...Provider) *Aggregator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = defaultProviderTimeout
	}
	if len(opts.Priority) == 0 {
		opts.Priority = DefaultPriority
	}

	a := &Aggregator{
		providers: make(map[string]Provider),
		opts:      opts,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, p := range providers {
		a.Register(p)
	}
	return a
}

// Register adds p, replacing any provider with the same name.
func (a *Aggregator) Register(p Provider) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := providerKey(p.Name())
	if _, exists := a.providers[key]; !exists {
		a.names = append(a.names, p.Name())
	}
	a.providers[key] = p
}

// Providers returns the registered provider names in registration order.
func (a *Aggregator) Providers() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.names...)
}

// Priority returns the source priority used for deduplication.
func (a *Aggregator) Priority() Priority {
	return a.opts.Priority
}

// SearchOutput holds the ranked results of one search and its statistics.
type SearchOutput struct {
	// SearchID correlates log lines and history entries for this search.
	SearchID string `json:"search_id"`

	// Results are the merged records, most relevant first.
	Results []types.Record `json:"results"`

	// RawCount is the number of records providers returned before merging.
	RawCount int `json:"raw_count"`

	// DupsRemoved is the number of records merged away as duplicates.
	DupsRemoved int `json:"duplicates_removed"`

	// Enriched is the number of records modified by enrichment.
	Enriched int `json:"enriched"`

	// ProviderErrors lists "provider: error" for every failed provider.
	ProviderErrors []string `json:"provider_errors,omitempty"`

	Duration time.Duration `json:"duration"`
}

// Search runs q against the providers it names, then merges, enriches, and
// ranks the combined records. A blank query text fails with ErrEmptyQuery
// before any provider is called; every other failure degrades to fewer or
// poorer results. An empty provider set yields an empty result.
func (a *Aggregator) Search(ctx context.Context, q types.Query) (SearchOutput, error) {
	start := time.Now()
	q = normalizeQuery(q)

	if err := a.validate.Struct(q); err != nil {
		a.opts.Metrics.ObserveSearch("invalid", time.Since(start))
		return SearchOutput{}, validationError(err)
	}

	searchID := uuid.NewString()
	log := observability.WithSearchContext(a.opts.Logger, searchID, q.Text)

	raw, failures := a.dispatch(ctx, q, log)

	merged, dups := Merge(raw, a.opts.Priority)
	a.opts.Metrics.AddDuplicates(dups)

	enriched := 0
	if a.opts.Enricher != nil && len(merged) > 0 {
		enriched = a.opts.Enricher.Enrich(ctx, merged)
	}

	Rank(merged, q.Text)

	out := SearchOutput{
		SearchID:       searchID,
		Results:        merged,
		RawCount:       len(raw),
		DupsRemoved:    dups,
		Enriched:       enriched,
		ProviderErrors: failures,
		Duration:       time.Since(start),
	}
	a.opts.Metrics.ObserveSearch("ok", out.Duration)

	log.Info().
		Int("raw", out.RawCount).
		Int("results", len(out.Results)).
		Int("duplicates", dups).
		Int("enriched", enriched).
		Int("provider_errors", len(failures)).
		Dur("duration", out.Duration).
		Msg("search finished")

	return out, nil
}

// normalizeQuery trims the text and applies defaults for unset fields.
func normalizeQuery(q types.Query) types.Query {
	q.Text = strings.TrimSpace(q.Text)
	if q.Limit <= 0 {
		q.Limit = types.DefaultLimit
	}
	if q.MinYear < 0 {
		q.MinYear = 0
	}
	return q
}

// validationError maps validator failures onto the package's errors.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "Text" {
				return fmt.Errorf("%w: provide a search term", ErrEmptyQuery)
			}
		}
	}
	return fmt.Errorf("invalid query: %w", err)
}
