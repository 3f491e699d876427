// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the scholar-search aggregator:
// the query handed to every provider, the raw records providers return, and the
// merged records the aggregator hands back to its callers.
package types

// UnknownYear is the normalized year of a record whose raw year carries no
// recognizable four-digit year.
const UnknownYear = "unknown"

// RawRecord is a single search hit as produced by one provider, before any
// merging. Optional text fields use the empty string for "absent".
type RawRecord struct {
	// Source names the provider that produced the record (e.g. "PubMed").
	Source string `json:"source" yaml:"source"`

	// Title is the work's title. It is the only identity signal shared by
	// every provider; records without one are discarded before merging.
	Title string `json:"title" yaml:"title"`

	// Authors is a free-text author list (e.g. "A. Smith, B. Jones").
	Authors string `json:"authors" yaml:"authors"`

	// Journal is the venue or journal name.
	Journal string `json:"journal" yaml:"journal"`

	// RawYear is the year exactly as the provider reported it: "2015",
	// "2015.0", "2020-05-01" and so on.
	RawYear string `json:"raw_year,omitempty" yaml:"raw_year,omitempty"`

	// Abstract is the abstract text as returned by the provider.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Citations is the citation count, or nil when the provider does not
	// report one.
	Citations *int `json:"citations,omitempty" yaml:"citations,omitempty"`

	// URL is the canonical landing page for the work.
	URL string `json:"url" yaml:"url"`

	// PDFURL links to a full-text PDF when one is known.
	PDFURL string `json:"pdf_url" yaml:"pdf_url"`

	// DOI is the persistent identifier used for enrichment lookups.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`
}

// CitationCount returns the citation count, treating unknown as zero.
func (r RawRecord) CitationCount() int {
	if r.Citations == nil {
		return 0
	}
	return *r.Citations
}

// Record is a merged search result: the winning RawRecord for one distinct
// title plus the fields the aggregator computes for it.
type Record struct {
	RawRecord `yaml:",inline"`

	// Year is the normalized four-digit year, or UnknownYear.
	Year string `json:"year" yaml:"year"`

	// RelevanceScore is the keyword relevance of the record to the query.
	RelevanceScore int `json:"relevance_score" yaml:"relevance_score"`

	// Enriched is set when a secondary lookup modified the record.
	Enriched bool `json:"enriched" yaml:"enriched"`
}

// IntPtr returns a pointer to n. Providers use it to fill Citations.
func IntPtr(n int) *int {
	return &n
}
