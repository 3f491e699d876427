// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/scholar-search/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,authors,year,abstract,journal,venue,url,isOpenAccess,openAccessPdf,citationCount,externalIds"

// SemanticScholarName is the source name Semantic Scholar records carry.
const SemanticScholarName = "Semantic Scholar"

// SemanticScholarProvider queries the Semantic Scholar Graph API.
type SemanticScholarProvider struct {
	Transport
	APIKey string

	// FieldsOfStudy optionally narrows results, e.g. "Medicine,Biology".
	FieldsOfStudy string
}

// Name returns the provider name.
func (p *SemanticScholarProvider) Name() string { return SemanticScholarName }

// Search returns up to q.Limit papers matching q. The API has no
// open-access filter, so open-access-only queries are filtered here.
func (p *SemanticScholarProvider) Search(ctx context.Context, q types.Query) ([]types.RawRecord, error) {
	params := url.Values{
		"query":  {q.Text},
		"limit":  {strconv.Itoa(q.Limit)},
		"fields": {semanticFields},
	}
	if from, to, ok := yearRange(q); ok {
		params.Set("year", fmt.Sprintf("%d-%d", from, to))
	}
	if p.FieldsOfStudy != "" {
		params.Set("fieldsOfStudy", p.FieldsOfStudy)
	}

	header := http.Header{}
	if p.APIKey != "" {
		header.Set("x-api-key", p.APIKey)
	}

	var sr semanticResponse
	if err := p.getJSON(ctx, SemanticScholarName, semanticAPIBase+"?"+params.Encode(), header, &sr); err != nil {
		return nil, err
	}

	var records []types.RawRecord
	for _, paper := range sr.Data {
		if q.OpenAccessOnly && !paper.IsOpenAccess && paper.OpenAccessPDF == nil {
			continue
		}

		r := types.RawRecord{
			Source:    SemanticScholarName,
			Title:     CleanText(paper.Title),
			Abstract:  CleanText(paper.Abstract),
			RawYear:   string(paper.Year),
			Citations: paper.CitationCount,
			URL:       paper.URL,
			DOI:       NormalizeDOI(paper.ExternalIDs.DOI),
			Journal:   paper.Venue,
		}
		if paper.Journal != nil && paper.Journal.Name != "" {
			r.Journal = paper.Journal.Name
		}
		if paper.OpenAccessPDF != nil {
			r.PDFURL = paper.OpenAccessPDF.URL
		}

		names := make([]string, 0, len(paper.Authors))
		for _, a := range paper.Authors {
			names = append(names, a.Name)
		}
		r.Authors = joinAuthors(names, maxAuthors)

		records = append(records, r)
	}
	return records, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID       string            `json:"paperId"`
	Title         string            `json:"title"`
	Abstract      string            `json:"abstract"`
	Year          flexString        `json:"year"`
	Venue         string            `json:"venue"`
	URL           string            `json:"url"`
	IsOpenAccess  bool              `json:"isOpenAccess"`
	CitationCount *int              `json:"citationCount"`
	Journal       *semanticJournal  `json:"journal"`
	OpenAccessPDF *semanticPDF      `json:"openAccessPdf"`
	Authors       []semanticAuthor  `json:"authors"`
	ExternalIDs   semanticExternIDs `json:"externalIds"`
}

type semanticJournal struct {
	Name string `json:"name"`
}

type semanticPDF struct {
	URL string `json:"url"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternIDs struct {
	ArXiv string `json:"ArXiv"`
	DOI   string `json:"DOI"`
}
