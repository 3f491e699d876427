// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scholar-search/internal/search"
	"github.com/pdiddy/scholar-search/pkg/types"
)

// QueryFile is the on-disk representation of a search query and its results.
// A saved search can be reloaded and re-rendered without re-querying the
// providers.
type QueryFile struct {
	Query   types.Query    `yaml:"query"`
	Results []types.Record `yaml:"results"`
	Summary QuerySummary   `yaml:"summary"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	SearchID          string    `yaml:"search_id,omitempty"`
	Total             int       `yaml:"total"`
	DuplicatesRemoved int       `yaml:"duplicates_removed"`
	Enriched          int       `yaml:"enriched"`
	ProviderErrors    []string  `yaml:"provider_errors,omitempty"`
	Timestamp         time.Time `yaml:"timestamp"`
}

// NewQueryFile captures q and its results.
func NewQueryFile(q types.Query, out search.SearchOutput) QueryFile {
	return QueryFile{
		Query:   q,
		Results: out.Results,
		Summary: QuerySummary{
			SearchID:          out.SearchID,
			Total:             len(out.Results),
			DuplicatesRemoved: out.DupsRemoved,
			Enriched:          out.Enriched,
			ProviderErrors:    out.ProviderErrors,
			Timestamp:         reportNow().UTC(),
		},
	}
}

// Output rebuilds the search output the file was saved from.
func (qf QueryFile) Output() search.SearchOutput {
	return search.SearchOutput{
		SearchID:       qf.Summary.SearchID,
		Results:        qf.Results,
		RawCount:       qf.Summary.Total + qf.Summary.DuplicatesRemoved,
		DupsRemoved:    qf.Summary.DuplicatesRemoved,
		Enriched:       qf.Summary.Enriched,
		ProviderErrors: qf.Summary.ProviderErrors,
	}
}

// EncodeQueryFile writes qf as YAML to w.
func EncodeQueryFile(w io.Writer, qf QueryFile) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&qf); err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return enc.Close()
}

// WriteQueryFile saves query parameters and results to a YAML file.
func WriteQueryFile(path string, q types.Query, out search.SearchOutput) error {
	data, err := yaml.Marshal(NewQueryFile(q, out))
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}
