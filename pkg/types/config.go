package types

import "time"

// HTTPConfig holds shared HTTP settings used by every provider client.
type HTTPConfig struct {
	// Timeout is the HTTP client timeout for a single request.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "scholar-search/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on HTTP 429 responses (default 1).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// SearchConfig holds settings for the aggregated search.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Limit is the default number of results requested per provider (default 5).
	Limit int `json:"limit" yaml:"limit" mapstructure:"limit"`

	// Providers lists the providers queried when a search names none.
	Providers []string `json:"providers" yaml:"providers" mapstructure:"providers"`

	// DefaultYearWindow sets the minimum year to the current year minus this
	// many years when a search gives no minimum year. Zero disables it.
	DefaultYearWindow int `json:"default_year_window" yaml:"default_year_window" mapstructure:"default_year_window"`

	// OpenAccessOnly restricts searches to open-access works by default.
	OpenAccessOnly bool `json:"open_access_only" yaml:"open_access_only" mapstructure:"open_access_only"`

	// Concurrency caps the number of providers queried at once (default 5).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// ProviderTimeout bounds each provider call (default 8s).
	ProviderTimeout time.Duration `json:"provider_timeout" yaml:"provider_timeout" mapstructure:"provider_timeout"`

	// DispatchTimeout bounds the whole fan-out; providers still running
	// when it expires are abandoned. Zero disables the ceiling.
	DispatchTimeout time.Duration `json:"dispatch_timeout" yaml:"dispatch_timeout" mapstructure:"dispatch_timeout"`

	// Priority orders provider names from most to least preferred when the
	// same work is returned by several providers.
	Priority []string `json:"priority" yaml:"priority" mapstructure:"priority"`

	// RateLimit is the sustained request rate per provider in requests per
	// second. Zero disables rate limiting.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`

	// SemanticFieldsOfStudy restricts Semantic Scholar results to the given
	// comma-separated fields (e.g. "Biology,Medicine").
	SemanticFieldsOfStudy string `json:"semantic_fields_of_study,omitempty" yaml:"semantic_fields_of_study,omitempty" mapstructure:"semantic_fields_of_study"`
}

// EnrichmentConfig holds settings for the secondary metadata lookup.
type EnrichmentConfig struct {
	// Enabled turns enrichment on.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Timeout bounds each lookup (default 3s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MinAbstractLength is the abstract length below which a record is
	// considered to be missing its abstract (default 50).
	MinAbstractLength int `json:"min_abstract_length" yaml:"min_abstract_length" mapstructure:"min_abstract_length"`

	// Concurrency caps the number of lookups in flight (default 5).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is json or console.
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// Output is stdout or stderr.
	Output string `json:"output" yaml:"output" mapstructure:"output"`
}

// HistoryConfig holds settings for the local search history.
type HistoryConfig struct {
	// Enabled records every CLI search in the history database.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (e.g. ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// Config groups all configuration for the tool.
type Config struct {
	Search     SearchConfig     `json:"search" yaml:"search" mapstructure:"search"`
	Enrichment EnrichmentConfig `json:"enrichment" yaml:"enrichment" mapstructure:"enrichment"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging" mapstructure:"logging"`
	History    HistoryConfig    `json:"history" yaml:"history" mapstructure:"history"`
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
}
