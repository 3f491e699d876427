// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-search/internal/search"
	"github.com/pdiddy/scholar-search/internal/secrets"
	"github.com/pdiddy/scholar-search/pkg/types"
)

func newViper() *viper.Viper {
	v := viper.New()
	configureEnv(v)
	setDefaults(v)
	return v
}

func TestLoadConfigDefaults(t *testing.T) {
	c, err := loadConfig(newViper())
	require.NoError(t, err)

	assert.Equal(t, 5, c.Search.Limit)
	assert.Equal(t, 5, c.Search.Concurrency)
	assert.Equal(t, 8*time.Second, c.Search.ProviderTimeout)
	assert.Equal(t, 20*time.Second, c.Search.DispatchTimeout)
	assert.Equal(t, 1, c.Search.MaxRetries)
	assert.Equal(t, defaultUserAgent, c.Search.UserAgent)
	assert.Equal(t, []string(search.DefaultPriority), c.Search.Providers)
	assert.Equal(t, 10, c.Search.DefaultYearWindow)
	assert.True(t, c.Enrichment.Enabled)
	assert.Equal(t, 3*time.Second, c.Enrichment.Timeout)
	assert.Equal(t, 50, c.Enrichment.MinAbstractLength)
	assert.Equal(t, "stderr", c.Logging.Output)
	assert.Equal(t, ":8080", c.Server.Addr)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scholar-search.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
search:
  limit: 12
  providers: [PubMed, arXiv]
  dispatch_timeout: 45s
  timeout: 5s
enrichment:
  enabled: false
logging:
  level: debug
`), 0o644))

	t.Setenv("SCHOLAR_SEARCH_SEARCH_CONCURRENCY", "2")
	t.Setenv("SCHOLAR_SEARCH_HISTORY_PATH", "/tmp/h.db")

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	c, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 12, c.Search.Limit)
	assert.Equal(t, []string{"PubMed", "arXiv"}, c.Search.Providers)
	assert.Equal(t, 45*time.Second, c.Search.DispatchTimeout)
	assert.Equal(t, 5*time.Second, c.Search.Timeout)
	assert.False(t, c.Enrichment.Enabled)
	assert.Equal(t, "debug", c.Logging.Level)
	assert.Equal(t, 2, c.Search.Concurrency)
	assert.Equal(t, "/tmp/h.db", c.History.Path)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	v := newViper()
	v.Set("search.limit", 0)
	_, err := loadConfig(v)
	assert.ErrorContains(t, err, "search.limit")

	v = newViper()
	v.Set("search.concurrency", -1)
	_, err = loadConfig(v)
	assert.ErrorContains(t, err, "search.concurrency")
}

func TestKeysFromEnv(t *testing.T) {
	t.Setenv("SCHOLAR_SEARCH_NCBI_API_KEY", " ncbi-env ")
	t.Setenv("SCHOLAR_SEARCH_OPENALEX_EMAIL", "me@example.com")

	assert.Equal(t, secrets.Keys{
		NCBI:          "ncbi-env",
		OpenAlexEmail: "me@example.com",
	}, keysFromEnv(newViper()))
}

func newSearchFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "search"}
	cmd.Flags().StringSlice("providers", nil, "")
	cmd.Flags().Int("limit", 0, "")
	cmd.Flags().Int("min-year", 0, "")
	cmd.Flags().Bool("all-years", false, "")
	cmd.Flags().Bool("open-access", false, "")
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestQueryFromFlags(t *testing.T) {
	sc := types.SearchConfig{
		Limit:             5,
		Providers:         []string{"PubMed", "OpenAlex"},
		DefaultYearWindow: 10,
	}
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		flags []string
		want  types.Query
	}{
		{
			name: "config defaults",
			want: types.Query{Text: "gut microbiome", Limit: 5, MinYear: 2016, Providers: []string{"PubMed", "OpenAlex"}},
		},
		{
			name:  "flags override",
			flags: []string{"--providers", "arXiv,PLOS", "--limit", "9", "--min-year", "2020", "--open-access"},
			want: types.Query{
				Text: "gut microbiome", Limit: 9, MinYear: 2020,
				Providers: []string{"arXiv", "PLOS"}, OpenAccessOnly: true,
			},
		},
		{
			name:  "all years",
			flags: []string{"--all-years"},
			want:  types.Query{Text: "gut microbiome", Limit: 5, Providers: []string{"PubMed", "OpenAlex"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := queryFromFlags(newSearchFlags(t, tt.flags...), []string{"gut", " microbiome "}, sc, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q)
		})
	}
}

func TestQueryFromFlagsRequiresText(t *testing.T) {
	_, err := queryFromFlags(newSearchFlags(t), []string{"  "}, types.SearchConfig{}, time.Now())
	assert.ErrorIs(t, err, search.ErrEmptyQuery)
}

func TestBuildAggregatorRegistersEveryProvider(t *testing.T) {
	c, err := loadConfig(newViper())
	require.NoError(t, err)

	agg := buildAggregator(c, secrets.Keys{}, logger, nil)
	assert.ElementsMatch(t, []string(search.DefaultPriority), agg.Providers())
}
