// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-search/internal/search"
	"github.com/pdiddy/scholar-search/internal/secrets"
	"github.com/pdiddy/scholar-search/pkg/types"
)

const (
	envPrefix        = "SCHOLAR_SEARCH"
	defaultUserAgent = "scholar-search/0.1"
)

// configFileUsed is the config file viper read, if any.
var configFileUsed string

// configureEnv maps nested keys onto environment variables, so that
// SCHOLAR_SEARCH_SEARCH_LIMIT overrides search.limit.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// setDefaults registers every configuration key with its default value.
// Keys must be registered for AutomaticEnv to reach them on Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("search.timeout", 15*time.Second)
	v.SetDefault("search.user_agent", defaultUserAgent)
	v.SetDefault("search.max_retries", 1)
	v.SetDefault("search.limit", types.DefaultLimit)
	v.SetDefault("search.providers", []string(search.DefaultPriority))
	v.SetDefault("search.default_year_window", 10)
	v.SetDefault("search.open_access_only", false)
	v.SetDefault("search.concurrency", 5)
	v.SetDefault("search.provider_timeout", 8*time.Second)
	v.SetDefault("search.dispatch_timeout", 20*time.Second)
	v.SetDefault("search.priority", []string(search.DefaultPriority))
	v.SetDefault("search.rate_limit", 3.0)
	v.SetDefault("search.semantic_fields_of_study", "")

	v.SetDefault("enrichment.enabled", true)
	v.SetDefault("enrichment.timeout", search.DefaultEnrichTimeout)
	v.SetDefault("enrichment.min_abstract_length", search.DefaultMinAbstractLength)
	v.SetDefault("enrichment.concurrency", 5)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", ".scholar-search/history.db")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
}

// loadConfig decodes the merged defaults, config file, and environment.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var c types.Config
	if err := v.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if c.Search.Limit <= 0 {
		return types.Config{}, fmt.Errorf("search.limit must be positive, got %d", c.Search.Limit)
	}
	if c.Search.Concurrency <= 0 {
		return types.Config{}, fmt.Errorf("search.concurrency must be positive, got %d", c.Search.Concurrency)
	}
	return c, nil
}

// keysFromEnv reads provider credentials from SCHOLAR_SEARCH_* variables,
// e.g. SCHOLAR_SEARCH_NCBI_API_KEY.
func keysFromEnv(v *viper.Viper) secrets.Keys {
	get := func(name string) string {
		return strings.TrimSpace(v.GetString(strings.ReplaceAll(name, "-", "_")))
	}
	return secrets.Keys{
		NCBI:            get(secrets.NCBIAPIKey),
		SemanticScholar: get(secrets.SemanticScholarAPIKey),
		OpenAlexEmail:   get(secrets.OpenAlexEmail),
		PLOS:            get(secrets.PLOSAPIKey),
	}
}
