// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/scholar-search/pkg/types"
)

// plosAPIBase is the PLOS Solr search endpoint. Declared as a var so tests
// can substitute an httptest server.
var plosAPIBase = "https://api.plos.org/search"

// PLOSName is the source name PLOS records carry.
const PLOSName = "PLOS"

const plosFields = "id,title,journal,author_display,abstract,publication_date"

// PLOSProvider queries the PLOS journals search API. Every PLOS article is
// open access, so the open-access flag needs no filter.
type PLOSProvider struct {
	Transport
	APIKey string
}

// Name returns the provider name.
func (p *PLOSProvider) Name() string { return PLOSName }

// Search returns up to q.Limit PLOS articles whose title or abstract
// contains the query phrase.
func (p *PLOSProvider) Search(ctx context.Context, q types.Query) ([]types.RawRecord, error) {
	params := url.Values{
		"q":    {buildPLOSQuery(q.Text)},
		"fl":   {plosFields},
		"rows": {strconv.Itoa(q.Limit)},
		"wt":   {"json"},
	}
	if from, _, ok := yearRange(q); ok {
		params.Set("fq", fmt.Sprintf("publication_date:[%d-01-01T00:00:00Z TO NOW]", from))
	}
	if p.APIKey != "" {
		params.Set("api_key", p.APIKey)
	}

	var pr plosResponse
	if err := p.getJSON(ctx, PLOSName, plosAPIBase+"?"+params.Encode(), nil, &pr); err != nil {
		return nil, err
	}

	records := make([]types.RawRecord, 0, len(pr.Response.Docs))
	for _, doc := range pr.Response.Docs {
		r := types.RawRecord{
			Source:   PLOSName,
			Title:    CleanText(doc.Title),
			Journal:  doc.Journal,
			Authors:  joinAuthors(doc.Authors, maxAuthors),
			Abstract: CleanText(strings.Join(doc.Abstract, " ")),
			RawYear:  doc.PublicationDate,
			DOI:      NormalizeDOI(doc.ID),
		}
		if r.DOI != "" {
			r.URL = "https://journals.plos.org/plosone/article?id=" + r.DOI
			r.PDFURL = "https://journals.plos.org/plosone/article/file?id=" + r.DOI + "&type=printable"
		}
		records = append(records, r)
	}
	return records, nil
}

// buildPLOSQuery matches the phrase in either the title or the abstract.
func buildPLOSQuery(text string) string {
	phrase := strings.ReplaceAll(text, `"`, `\"`)
	return fmt.Sprintf(`title:"%s" OR abstract:"%s"`, phrase, phrase)
}

// PLOS Solr JSON structures.
type plosResponse struct {
	Response struct {
		NumFound int       `json:"numFound"`
		Docs     []plosDoc `json:"docs"`
	} `json:"response"`
}

type plosDoc struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Journal         string   `json:"journal"`
	Authors         []string `json:"author_display"`
	Abstract        []string `json:"abstract"`
	PublicationDate string   `json:"publication_date"`
}
