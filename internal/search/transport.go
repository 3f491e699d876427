// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/scholar-search/internal/httputil"
	"github.com/pdiddy/scholar-search/pkg/types"
)

// Transport holds the HTTP settings every provider shares. A zero Transport
// uses http.DefaultClient with no rate limit.
type Transport struct {
	Client     *http.Client
	Limiter    *httputil.RateLimiter
	UserAgent  string
	MaxRetries int
}

// NewTransport builds a Transport from the search HTTP configuration and a
// provider-specific limiter (which may be nil).
func NewTransport(cfg types.HTTPConfig, limiter *httputil.RateLimiter) Transport {
	return Transport{
		Client:     httputil.NewClient(cfg),
		Limiter:    limiter,
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
	}
}

// get issues a GET and returns the response when the status is 200. The
// caller closes the body. service names the API in error messages.
func (t Transport) get(ctx context.Context, service, rawURL string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if t.UserAgent != "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, t.Limiter, req, t.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("%s API request: %w", service, err)
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("%s API returned HTTP %d", service, resp.StatusCode)
	}
	return resp, nil
}

// getJSON issues a GET and decodes a JSON response into v.
func (t Transport) getJSON(ctx context.Context, service, rawURL string, header http.Header, v any) error {
	resp, err := t.get(ctx, service, rawURL, header)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing %s response: %w", service, err)
	}
	return nil
}

// getXML issues a GET and decodes an XML response into v.
func (t Transport) getXML(ctx context.Context, service, rawURL string, v any) error {
	resp, err := t.get(ctx, service, rawURL, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := xml.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing %s response: %w", service, err)
	}
	return nil
}
