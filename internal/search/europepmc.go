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

// europePMCAPIBase is the Europe PMC REST search endpoint. Declared as a var
// so tests can substitute an httptest server.
var europePMCAPIBase = "https://www.ebi.ac.uk/europepmc/webservices/rest/search"

// EuropePMCName is the source name Europe PMC records carry.
const EuropePMCName = "Europe PMC"

// EuropePMCProvider queries the Europe PMC REST API.
type EuropePMCProvider struct {
	Transport
}

// Name returns the provider name.
func (p *EuropePMCProvider) Name() string { return EuropePMCName }

// Search returns up to q.Limit Europe PMC results matching q.
func (p *EuropePMCProvider) Search(ctx context.Context, q types.Query) ([]types.RawRecord, error) {
	params := url.Values{
		"query":      {buildEuropePMCQuery(q)},
		"format":     {"json"},
		"resultType": {"core"},
		"pageSize":   {strconv.Itoa(q.Limit)},
	}

	var er europePMCResponse
	if err := p.getJSON(ctx, EuropePMCName, europePMCAPIBase+"?"+params.Encode(), nil, &er); err != nil {
		return nil, err
	}

	records := make([]types.RawRecord, 0, len(er.ResultList.Results))
	for _, res := range er.ResultList.Results {
		r := types.RawRecord{
			Source:    EuropePMCName,
			Title:     CleanText(res.Title),
			Authors:   europePMCAuthors(res.AuthorString),
			Journal:   res.JournalTitle,
			RawYear:   string(res.PubYear),
			Abstract:  CleanText(res.AbstractText),
			Citations: res.CitedByCount.v,
			DOI:       NormalizeDOI(res.DOI),
			PDFURL:    europePMCPDF(res.FullTextURLs.URLs),
		}
		if res.JournalInfo != nil && res.JournalInfo.Journal.Title != "" {
			r.Journal = res.JournalInfo.Journal.Title
		}
		if res.Source != "" && res.ID != "" {
			r.URL = "https://europepmc.org/article/" + res.Source + "/" + res.ID
		}
		records = append(records, r)
	}
	return records, nil
}

// buildEuropePMCQuery appends the year range and open-access clauses.
func buildEuropePMCQuery(q types.Query) string {
	query := q.Text
	if from, to, ok := yearRange(q); ok {
		query += fmt.Sprintf(" AND PUB_YEAR:[%d TO %d]", from, to)
	}
	if q.OpenAccessOnly {
		query += " AND (OPEN_ACCESS:y)"
	}
	return query
}

// europePMCAuthors trims the trailing period Europe PMC puts on author
// strings and caps the list.
func europePMCAuthors(s string) string {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	if s == "" {
		return ""
	}
	return joinAuthors(strings.Split(s, ","), maxAuthors)
}

// europePMCPDF returns the first PDF full-text link.
func europePMCPDF(urls []europePMCFullTextURL) string {
	for _, u := range urls {
		if strings.EqualFold(u.DocumentStyle, "pdf") && u.URL != "" {
			return u.URL
		}
	}
	return ""
}

// Europe PMC API JSON structures.
type europePMCResponse struct {
	HitCount   int `json:"hitCount"`
	ResultList struct {
		Results []europePMCResult `json:"result"`
	} `json:"resultList"`
}

type europePMCResult struct {
	ID           string                `json:"id"`
	Source       string                `json:"source"`
	Title        string                `json:"title"`
	AuthorString string                `json:"authorString"`
	JournalTitle string                `json:"journalTitle"`
	JournalInfo  *europePMCJournalInfo `json:"journalInfo"`
	PubYear      flexString            `json:"pubYear"`
	AbstractText string                `json:"abstractText"`
	CitedByCount flexInt               `json:"citedByCount"`
	DOI          string                `json:"doi"`
	IsOpenAccess string                `json:"isOpenAccess"`
	FullTextURLs struct {
		URLs []europePMCFullTextURL `json:"fullTextUrl"`
	} `json:"fullTextUrlList"`
}

type europePMCJournalInfo struct {
	Journal struct {
		Title string `json:"title"`
	} `json:"journal"`
}

type europePMCFullTextURL struct {
	Availability  string `json:"availability"`
	DocumentStyle string `json:"documentStyle"`
	URL           string `json:"url"`
}
