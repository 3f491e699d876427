// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/scholar-search/internal/observability"
	"github.com/pdiddy/scholar-search/pkg/types"
)

// EnrichedMarker is appended to an abstract replaced by enrichment.
const EnrichedMarker = " [Enriched]"

// Enrichment defaults.
const (
	DefaultEnrichTimeout     = 3 * time.Second
	DefaultMinAbstractLength = 50
	defaultEnrichConcurrency = 5
)

// WorkMetadata is what a lookup service knows about a work.
type WorkMetadata struct {
	Abstract  string
	PDFURL    string
	Citations *int
}

// Lookup resolves a DOI to work metadata. It returns nil metadata and no
// error when the DOI is unknown.
type Lookup interface {
	LookupDOI(ctx context.Context, doi string) (*WorkMetadata, error)
}

// Enricher backfills thin records from a DOI lookup service. A record is a
// candidate when its abstract is shorter than MinAbstractLength characters
// or its citation count is unknown or zero, and it carries a DOI.
type Enricher struct {
	lookup            Lookup
	timeout           time.Duration
	minAbstractLength int
	concurrency       int
	logger            zerolog.Logger
	metrics           *observability.Metrics
}

// NewEnricher returns an Enricher using lookup. Unset fields of cfg take the
// package defaults; cfg.Enabled is the caller's concern.
func NewEnricher(lookup Lookup, cfg types.EnrichmentConfig, logger zerolog.Logger, metrics *observability.Metrics) *Enricher {
	e := &Enricher{
		lookup:            lookup,
		timeout:           cfg.Timeout,
		minAbstractLength: cfg.MinAbstractLength,
		concurrency:       cfg.Concurrency,
		logger:            logger,
		metrics:           metrics,
	}
	if e.timeout <= 0 {
		e.timeout = DefaultEnrichTimeout
	}
	if e.minAbstractLength <= 0 {
		e.minAbstractLength = DefaultMinAbstractLength
	}
	if e.concurrency <= 0 {
		e.concurrency = defaultEnrichConcurrency
	}
	return e
}

// Enrich looks up every candidate record in place and returns how many were
// modified. Lookup failures leave the record unchanged.
func (e *Enricher) Enrich(ctx context.Context, records []types.Record) int {
	var g errgroup.Group
	g.SetLimit(e.concurrency)

	var modified atomic.Int64
	for i := range records {
		needAbstract, needCitations := e.needs(records[i])
		if !needAbstract && !needCitations {
			continue
		}
		doi := NormalizeDOI(records[i].DOI)
		if doi == "" {
			continue
		}

		rec := &records[i]
		g.Go(func() error {
			if e.enrichOne(ctx, rec, doi, needAbstract, needCitations) {
				modified.Add(1)
			}
			return nil
		})
	}
	g.Wait()
	return int(modified.Load())
}

// needs reports which fields of r are thin enough to look up.
func (e *Enricher) needs(r types.Record) (abstract, citations bool) {
	abstract = utf8.RuneCountInString(strings.TrimSpace(r.Abstract)) < e.minAbstractLength
	citations = r.CitationCount() == 0
	return abstract, citations
}

// enrichOne applies one lookup to r. The abstract is replaced only when it
// was thin, the PDF link only when missing, and the citation count only
// when it was unknown or zero.
func (e *Enricher) enrichOne(ctx context.Context, r *types.Record, doi string, needAbstract, needCitations bool) (changed bool) {
	log := e.logger.With().Str("doi", doi).Logger()
	defer func() {
		if p := recover(); p != nil {
			log.Warn().Interface("panic", p).Msg("enrichment lookup panicked")
			e.metrics.ObserveEnrichment(observability.EnrichFailure)
			changed = false
		}
	}()

	lctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	meta, err := e.lookup.LookupDOI(lctx, doi)
	if err != nil {
		log.Debug().Err(err).Msg("enrichment lookup failed")
		e.metrics.ObserveEnrichment(observability.EnrichFailure)
		return false
	}
	if meta == nil {
		e.metrics.ObserveEnrichment(observability.EnrichMiss)
		return false
	}

	if needAbstract && strings.TrimSpace(meta.Abstract) != "" {
		r.Abstract = strings.TrimSpace(meta.Abstract) + EnrichedMarker
		changed = true
	}
	if r.PDFURL == "" && meta.PDFURL != "" {
		r.PDFURL = meta.PDFURL
		changed = true
	}
	if needCitations && meta.Citations != nil && (r.Citations == nil || *meta.Citations != *r.Citations) {
		r.Citations = types.IntPtr(*meta.Citations)
		changed = true
	}

	if !changed {
		e.metrics.ObserveEnrichment(observability.EnrichMiss)
		return false
	}
	r.Enriched = true
	e.metrics.ObserveEnrichment(observability.EnrichHit)
	log.Debug().Msg("record enriched")
	return true
}
