// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/scholar-search/pkg/types"
)

// pubmedAPIBase is the NCBI E-utilities base URL. Declared as a var so tests
// can substitute an httptest server.
var pubmedAPIBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// PubMedName is the source name PubMed records carry.
const PubMedName = "PubMed"

// PubMedProvider queries PubMed through E-utilities: esearch for the
// matching PMIDs, then efetch for their metadata.
type PubMedProvider struct {
	Transport
	APIKey string
}

// Name returns the provider name.
func (p *PubMedProvider) Name() string { return PubMedName }

// Search returns up to q.Limit PubMed articles matching q.
func (p *PubMedProvider) Search(ctx context.Context, q types.Query) ([]types.RawRecord, error) {
	ids, err := p.esearch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("esearch: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	set, err := p.efetch(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("efetch: %w", err)
	}

	records := make([]types.RawRecord, 0, len(set.Articles))
	for _, a := range set.Articles {
		records = append(records, pubmedRecord(a))
	}
	return records, nil
}

// buildPubMedTerm appends the date and free-full-text filters to the query.
func buildPubMedTerm(q types.Query) string {
	term := q.Text
	if from, to, ok := yearRange(q); ok {
		term += fmt.Sprintf(" AND %d:%d[dp]", from, to)
	}
	if q.OpenAccessOnly {
		term += " AND (free full text[Filter])"
	}
	return term
}

func (p *PubMedProvider) esearch(ctx context.Context, q types.Query) ([]string, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {buildPubMedTerm(q)},
		"retmax":  {strconv.Itoa(q.Limit)},
		"retmode": {"xml"},
		"sort":    {"relevance"},
	}
	if p.APIKey != "" {
		params.Set("api_key", p.APIKey)
	}

	var res pubmedSearchResult
	if err := p.getXML(ctx, PubMedName, pubmedAPIBase+"/esearch.fcgi?"+params.Encode(), &res); err != nil {
		return nil, err
	}
	return res.IDs, nil
}

func (p *PubMedProvider) efetch(ctx context.Context, ids []string) (*pubmedArticleSet, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"xml"},
		"rettype": {"abstract"},
	}
	if p.APIKey != "" {
		params.Set("api_key", p.APIKey)
	}

	var set pubmedArticleSet
	if err := p.getXML(ctx, PubMedName, pubmedAPIBase+"/efetch.fcgi?"+params.Encode(), &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// pubmedRecord maps one efetch article onto a RawRecord. PubMed reports no
// citation counts, so Citations stays unknown.
func pubmedRecord(a pubmedArticle) types.RawRecord {
	art := a.Citation.Article
	pmid := strings.TrimSpace(a.Citation.PMID)

	r := types.RawRecord{
		Source:   PubMedName,
		Title:    CleanText(art.Title.Inner),
		Journal:  CleanText(art.Journal.Title),
		Abstract: pubmedAbstract(art.Abstract),
		RawYear:  art.Journal.Issue.PubDate.Year,
	}
	if r.RawYear == "" {
		r.RawYear = art.Journal.Issue.PubDate.MedlineDate
	}
	if pmid != "" {
		r.URL = "https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/"
	}

	var names []string
	for _, au := range art.Authors {
		switch {
		case au.CollectiveName != "":
			names = append(names, au.CollectiveName)
		case au.LastName != "":
			names = append(names, strings.TrimSpace(au.ForeName+" "+au.LastName))
		}
	}
	r.Authors = joinAuthors(names, maxAuthors)

	for _, id := range a.Data.ArticleIDs {
		switch id.Type {
		case "doi":
			r.DOI = NormalizeDOI(id.Value)
		case "pmc":
			if pmc := strings.TrimSpace(id.Value); pmc != "" {
				r.PDFURL = "https://www.ncbi.nlm.nih.gov/pmc/articles/" + pmc + "/pdf/"
			}
		}
	}
	if r.DOI == "" {
		for _, loc := range art.ELocationIDs {
			if loc.Type == "doi" {
				r.DOI = NormalizeDOI(loc.Value)
				break
			}
		}
	}
	return r
}

// pubmedAbstract joins structured abstract sections, prefixing each with its
// label when it has one.
func pubmedAbstract(sections []pubmedMarkup) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		text := CleanText(s.Inner)
		if text == "" {
			continue
		}
		if s.Label != "" {
			text = s.Label + ": " + text
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

// E-utilities XML structures.
type pubmedSearchResult struct {
	XMLName xml.Name `xml:"eSearchResult"`
	Count   int      `xml:"Count"`
	IDs     []string `xml:"IdList>Id"`
}

type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation pubmedCitation `xml:"MedlineCitation"`
	Data     pubmedData     `xml:"PubmedData"`
}

type pubmedCitation struct {
	PMID    string            `xml:"PMID"`
	Article pubmedArticleMeta `xml:"Article"`
}

type pubmedArticleMeta struct {
	Journal      pubmedJournal      `xml:"Journal"`
	Title        pubmedMarkup       `xml:"ArticleTitle"`
	ELocationIDs []pubmedTypedValue `xml:"ELocationID"`
	Abstract     []pubmedMarkup     `xml:"Abstract>AbstractText"`
	Authors      []pubmedAuthor     `xml:"AuthorList>Author"`
}

type pubmedJournal struct {
	Title string             `xml:"Title"`
	Issue pubmedJournalIssue `xml:"JournalIssue"`
}

type pubmedJournalIssue struct {
	PubDate struct {
		Year        string `xml:"Year"`
		MedlineDate string `xml:"MedlineDate"`
	} `xml:"PubDate"`
}

// pubmedMarkup keeps the inner XML of elements that may contain inline
// formatting such as <i> or <sup>.
type pubmedMarkup struct {
	Label string `xml:"Label,attr"`
	Inner string `xml:",innerxml"`
}

type pubmedAuthor struct {
	LastName       string `xml:"LastName"`
	ForeName       string `xml:"ForeName"`
	CollectiveName string `xml:"CollectiveName"`
}

type pubmedData struct {
	ArticleIDs []pubmedArticleID `xml:"ArticleIdList>ArticleId"`
}

type pubmedArticleID struct {
	Type  string `xml:"IdType,attr"`
	Value string `xml:",chardata"`
}

type pubmedTypedValue struct {
	Type  string `xml:"EIdType,attr"`
	Value string `xml:",chardata"`
}
