// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/scholar-search/internal/observability"
	"github.com/pdiddy/scholar-search/pkg/types"
)

// resolve returns the registered providers named in names, each once, in
// the order named. Unknown names are skipped.
func (a *Aggregator) resolve(names []string, log zerolog.Logger) []Provider {
	a.mu.RLock()
	defer a.mu.RUnlock()

	seen := make(map[string]struct{}, len(names))
	var out []Provider
	for _, name := range names {
		key := providerKey(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		p, ok := a.providers[key]
		if !ok {
			log.Debug().Str("provider", name).Msg("ignoring unregistered provider")
			continue
		}
		out = append(out, p)
	}
	return out
}

// dispatch queries the providers named by q concurrently, at most
// Options.Concurrency at a time, and returns the concatenation of their
// records in completion order along with a description of each failure.
//
// Providers are isolated from one another: an error, timeout, or panic in
// one yields no records for it and does not affect the others. When the
// dispatch deadline or the caller's context expires first, providers still
// running are abandoned and whatever they return later is discarded.
func (a *Aggregator) dispatch(ctx context.Context, q types.Query, log zerolog.Logger) ([]types.RawRecord, []string) {
	providers := a.resolve(q.Providers, log)
	if len(providers) == 0 {
		return nil, nil
	}

	if a.opts.DispatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.DispatchTimeout)
		defer cancel()
	}

	var (
		mu       sync.Mutex
		records  []types.RawRecord
		failures []string
		closed   bool
	)

	var g errgroup.Group
	g.SetLimit(a.opts.Concurrency)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, p := range providers {
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				recs, err := a.runProvider(ctx, p, q, log)

				mu.Lock()
				defer mu.Unlock()
				if closed {
					return nil
				}
				if err != nil {
					failures = append(failures, fmt.Sprintf("%s: %v", p.Name(), err))
				}
				records = append(records, recs...)
				return nil
			})
		}
		g.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Warn().Err(ctx.Err()).Msg("dispatch deadline reached; abandoning pending providers")
	}

	mu.Lock()
	defer mu.Unlock()
	closed = true
	return records, failures
}

// runProvider calls p under its own deadline. It never panics: a panicking
// provider is reported as an error. On success the records are cleaned up
// by keepRecords.
func (a *Aggregator) runProvider(ctx context.Context, p Provider, q types.Query, log zerolog.Logger) (recs []types.RawRecord, err error) {
	name := p.Name()
	start := time.Now()
	outcome := observability.OutcomeOK

	defer func() {
		if r := recover(); r != nil {
			recs, err = nil, fmt.Errorf("provider panicked: %v", r)
			outcome = observability.OutcomePanic
		}
		elapsed := time.Since(start)
		a.opts.Metrics.ObserveProvider(name, outcome, elapsed, len(recs))
		if err != nil {
			log.Warn().Err(err).Str("provider", name).Dur("elapsed", elapsed).
				Msg("provider failed; continuing without its results")
			return
		}
		log.Debug().Str("provider", name).Int("records", len(recs)).Dur("elapsed", elapsed).
			Msg("provider finished")
	}()

	pctx, cancel := context.WithTimeout(ctx, a.opts.ProviderTimeout)
	defer cancel()

	recs, err = p.Search(pctx, q)
	if err != nil {
		outcome = observability.OutcomeError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(pctx.Err(), context.DeadlineExceeded) {
			outcome = observability.OutcomeTimeout
		}
		return nil, err
	}
	return keepRecords(recs, name, q.Limit), nil
}

// keepRecords drops records without a title, stamps a missing source with
// the provider name, and enforces the per-provider limit.
func keepRecords(recs []types.RawRecord, provider string, limit int) []types.RawRecord {
	kept := make([]types.RawRecord, 0, len(recs))
	for _, r := range recs {
		if strings.TrimSpace(r.Title) == "" {
			continue
		}
		if r.Source == "" {
			r.Source = provider
		}
		kept = append(kept, r)
		if limit > 0 && len(kept) == limit {
			break
		}
	}
	return kept
}
