// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"sort"
	"strings"

	"github.com/pdiddy/scholar-search/pkg/types"
)

// Relevance weights for a query term found in the title or, failing that,
// in the abstract.
const (
	TitleWeight    = 100
	AbstractWeight = 10
)

// Score returns the relevance of r to the lowercase query terms.
func Score(r types.Record, terms []string) int {
	title := strings.ToLower(r.Title)
	abstract := strings.ToLower(r.Abstract)

	score := 0
	for _, term := range terms {
		switch {
		case strings.Contains(title, term):
			score += TitleWeight
		case strings.Contains(abstract, term):
			score += AbstractWeight
		}
	}
	return score
}

// queryTerms splits query text into lowercase terms.
func queryTerms(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// Rank scores every record against queryText and sorts records by
// descending relevance, breaking ties by descending citation count. Unknown
// citation counts sort as zero but are left unset on the record.
func Rank(records []types.Record, queryText string) {
	terms := queryTerms(queryText)
	for i := range records {
		records[i].RelevanceScore = Score(records[i], terms)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].RelevanceScore != records[j].RelevanceScore {
			return records[i].RelevanceScore > records[j].RelevanceScore
		}
		return records[i].CitationCount() > records[j].CitationCount()
	})
}
