// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"sort"
	"strings"

	"github.com/pdiddy/scholar-search/pkg/types"
)

// DefaultPriority orders sources from the most to the least complete
// metadata. It decides which copy of a work survives deduplication.
var DefaultPriority = Priority{
	PubMedName,
	SemanticScholarName,
	EuropePMCName,
	OpenAlexName,
	PLOSName,
	ArxivName,
}

// Priority is a total order over source names; earlier entries win.
type Priority []string

// Rank returns the position of source in p. Sources not listed rank after
// every listed source. Matching ignores case and punctuation.
func (p Priority) Rank(source string) int {
	key := providerKey(source)
	for i, name := range p {
		if providerKey(name) == key {
			return i
		}
	}
	return len(p)
}

// Merge collapses records into one Record per normalized title. Records are
// stably sorted by source priority first, so the copy kept for each title is
// the one from the highest-priority source; among equal sources the earliest
// arrival wins. Records whose title normalizes to nothing are dropped. It
// returns the merged records in priority order and the number of duplicates
// removed.
//
// Matching is exact on the normalized title: near-duplicates that differ by
// a single letter are kept as distinct works.
func Merge(records []types.RawRecord, priority Priority) ([]types.Record, int) {
	sorted := make([]types.RawRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return priority.Rank(sorted[i].Source) < priority.Rank(sorted[j].Source)
	})

	seen := make(map[string]struct{}, len(sorted))
	merged := make([]types.Record, 0, len(sorted))
	dups := 0
	for _, r := range sorted {
		key := NormalizeTitle(r.Title)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, types.Record{
			RawRecord: r,
			Year:      NormalizeYear(r.RawYear),
		})
	}
	return merged, dups
}

// providerKey folds a provider name for comparison: "Semantic Scholar",
// "semantic_scholar" and "semanticscholar" share a key.
func providerKey(name string) string {
	return NormalizeTitle(strings.TrimSpace(name))
}
