// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/scholar-search/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// OpenAlexName is the source name OpenAlex records carry.
const OpenAlexName = "OpenAlex"

// openAlexBaseFilters restrict results to English journal articles that
// have an abstract.
const openAlexBaseFilters = "has_abstract:true,language:en,type:article"

// OpenAlexProvider queries the OpenAlex works API.
type OpenAlexProvider struct {
	Transport
	// Email is sent as mailto parameter for polite pool access.
	Email string
}

// Name returns the provider name.
func (p *OpenAlexProvider) Name() string { return OpenAlexName }

// Search returns up to q.Limit works matching q, most cited first.
func (p *OpenAlexProvider) Search(ctx context.Context, q types.Query) ([]types.RawRecord, error) {
	params := url.Values{
		"search":   {q.Text},
		"per_page": {strconv.Itoa(min(q.Limit, 200))},
		"page":     {"1"},
		"filter":   {buildOpenAlexFilter(q)},
		"sort":     {"cited_by_count:desc"},
	}
	if p.Email != "" {
		params.Set("mailto", p.Email)
	}

	var oar openAlexResponse
	if err := p.getJSON(ctx, OpenAlexName, openAlexSearchBase+"?"+params.Encode(), nil, &oar); err != nil {
		return nil, err
	}

	records := make([]types.RawRecord, 0, len(oar.Results))
	for _, work := range oar.Results {
		records = append(records, openAlexRecord(work))
	}
	return records, nil
}

// buildOpenAlexFilter combines the base filters with the query's year and
// open-access restrictions.
func buildOpenAlexFilter(q types.Query) string {
	filters := []string{openAlexBaseFilters}
	if from, _, ok := yearRange(q); ok {
		filters = append(filters, fmt.Sprintf("from_publication_date:%d-01-01", from))
	}
	if q.OpenAccessOnly {
		filters = append(filters, "is_oa:true")
	}
	return strings.Join(filters, ",")
}

func openAlexRecord(work openAlexWork) types.RawRecord {
	r := types.RawRecord{
		Source:    OpenAlexName,
		Title:     CleanText(work.title()),
		Abstract:  CleanText(reconstructAbstract(work.AbstractInvertedIndex)),
		RawYear:   string(work.PublicationYear),
		Citations: work.CitedByCount,
		DOI:       NormalizeDOI(work.DOI),
		PDFURL:    work.pdfURL(),
	}
	if r.RawYear == "" {
		r.RawYear = work.PublicationDate
	}

	// OpenAlex is DOI-centric; the DOI resolver is the stable landing page.
	switch {
	case r.DOI != "":
		r.URL = "https://doi.org/" + r.DOI
	case work.PrimaryLocation != nil && work.PrimaryLocation.LandingURL != "":
		r.URL = work.PrimaryLocation.LandingURL
	default:
		r.URL = work.ID
	}

	if work.PrimaryLocation != nil && work.PrimaryLocation.Source != nil {
		r.Journal = work.PrimaryLocation.Source.DisplayName
	}

	names := make([]string, 0, len(work.Authorships))
	for _, authorship := range work.Authorships {
		names = append(names, authorship.Author.DisplayName)
	}
	r.Authors = joinAuthors(names, maxAuthors)
	return r
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count   int `json:"count"`
	PerPage int `json:"per_page"`
	Page    int `json:"page"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DisplayName           string               `json:"display_name"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	PublicationYear       flexString           `json:"publication_year"`
	CitedByCount          *int                 `json:"cited_by_count"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	OpenAccess            openAlexOpenAccess   `json:"open_access"`
	PrimaryLocation       *openAlexLocation    `json:"primary_location"`
	BestOALocation        *openAlexLocation    `json:"best_oa_location"`
}

func (w openAlexWork) title() string {
	if w.Title != "" {
		return w.Title
	}
	return w.DisplayName
}

// pdfURL prefers the best open-access PDF and falls back to the generic
// open-access URL.
func (w openAlexWork) pdfURL() string {
	if w.BestOALocation != nil && w.BestOALocation.PDFURL != "" {
		return w.BestOALocation.PDFURL
	}
	return w.OpenAccess.OAURL
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexOpenAccess struct {
	IsOA     bool   `json:"is_oa"`
	OAStatus string `json:"oa_status"`
	OAURL    string `json:"oa_url"`
}

type openAlexLocation struct {
	PDFURL     string          `json:"pdf_url"`
	LandingURL string          `json:"landing_page_url"`
	Source     *openAlexSource `json:"source"`
}

type openAlexSource struct {
	DisplayName string `json:"display_name"`
}
