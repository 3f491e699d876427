// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pdiddy/scholar-search/internal/httputil"
)

// openAlexWorkBase is the OpenAlex single-work endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexWorkBase = "https://api.openalex.org/works/"

// OpenAlexLookup resolves DOIs to work metadata through OpenAlex.
type OpenAlexLookup struct {
	Transport
	Email string
}

// LookupDOI fetches the OpenAlex work for doi. It returns nil metadata and
// no error when OpenAlex does not know the DOI.
func (l *OpenAlexLookup) LookupDOI(ctx context.Context, doi string) (*WorkMetadata, error) {
	apiURL := openAlexWorkBase + "https://doi.org/" + doi
	if l.Email != "" {
		apiURL += "?" + url.Values{"mailto": {l.Email}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAlex request: %w", err)
	}
	if l.UserAgent != "" {
		req.Header.Set("User-Agent", l.UserAgent)
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, l.Limiter, req, l.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var work openAlexWork
	if err := json.NewDecoder(resp.Body).Decode(&work); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	return &WorkMetadata{
		Abstract:  CleanText(reconstructAbstract(work.AbstractInvertedIndex)),
		PDFURL:    work.pdfURL(),
		Citations: work.CitedByCount,
	}, nil
}
