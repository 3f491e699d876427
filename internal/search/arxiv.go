// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/pdiddy/scholar-search/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivName is the source name arXiv records carry.
const ArxivName = "arXiv"

// ArxivProvider queries the arXiv Atom API. Preprints are always free to
// read, so the open-access flag needs no filter.
type ArxivProvider struct {
	Transport
}

// Name returns the provider name.
func (p *ArxivProvider) Name() string { return ArxivName }

// Search returns up to q.Limit arXiv preprints matching q.
func (p *ArxivProvider) Search(ctx context.Context, q types.Query) ([]types.RawRecord, error) {
	sq := buildArxivQuery(q)
	if sq == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}

	params := url.Values{
		"search_query": {sq},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(q.Limit)},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}

	resp, err := p.get(ctx, ArxivName, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	records := make([]types.RawRecord, 0, len(feed.Items))
	for _, item := range feed.Items {
		records = append(records, arxivRecord(item))
	}
	return records, nil
}

func arxivRecord(item *gofeed.Item) types.RawRecord {
	r := types.RawRecord{
		Source:   ArxivName,
		Title:    CleanText(item.Title),
		Abstract: CleanText(item.Description),
		RawYear:  item.Published,
		URL:      item.Link,
		Journal:  ArxivName,
		DOI:      NormalizeDOI(arxivExtension(item, "doi")),
	}
	if ref := arxivExtension(item, "journal_ref"); ref != "" {
		r.Journal = CleanText(ref)
	}
	if r.URL == "" {
		r.URL = item.GUID
	}
	r.PDFURL = arxivPDF(item, r.URL)

	names := make([]string, 0, len(item.Authors))
	for _, a := range item.Authors {
		if a != nil {
			names = append(names, a.Name)
		}
	}
	r.Authors = joinAuthors(names, maxAuthors)
	return r
}

// buildArxivQuery constructs the search_query parameter: every term must
// appear, and submittedDate bounds the year range.
func buildArxivQuery(q types.Query) string {
	terms := strings.Fields(q.Text)
	if len(terms) == 0 {
		return ""
	}

	parts := make([]string, 0, len(terms)+1)
	for _, t := range terms {
		parts = append(parts, "all:"+t)
	}
	if from, to, ok := yearRange(q); ok {
		parts = append(parts, fmt.Sprintf("submittedDate:[%d01010000 TO %d12312359]", from, to))
	}
	return strings.Join(parts, " AND ")
}

// arxivExtension returns the first value of an arxiv: namespaced element.
func arxivExtension(item *gofeed.Item, name string) string {
	ns, ok := item.Extensions["arxiv"]
	if !ok {
		return ""
	}
	for _, ext := range ns[name] {
		if v := strings.TrimSpace(ext.Value); v != "" {
			return v
		}
	}
	return ""
}

// arxivPDF returns the entry's PDF link, deriving it from the abstract page
// (".../abs/2301.07041v1" → ".../pdf/2301.07041v1") when none is listed.
func arxivPDF(item *gofeed.Item, absURL string) string {
	for _, link := range item.Links {
		if strings.Contains(link, "/pdf/") {
			return link
		}
	}
	if strings.Contains(absURL, "/abs/") {
		return strings.Replace(absURL, "/abs/", "/pdf/", 1)
	}
	return ""
}
