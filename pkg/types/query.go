// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DefaultLimit is the per-provider result limit used when a query leaves it unset.
const DefaultLimit = 5

// Query holds the parameters of one aggregated search.
type Query struct {
	// Text is the free-text search string. It must not be blank.
	Text string `json:"text" yaml:"text" validate:"required"`

	// MinYear restricts results to works published in or after this year.
	// Zero means no lower bound.
	MinYear int `json:"min_year,omitempty" yaml:"min_year,omitempty" validate:"gte=0"`

	// Limit is the maximum number of records requested from each provider.
	Limit int `json:"limit" yaml:"limit" validate:"min=1"`

	// OpenAccessOnly asks providers to return only freely available works.
	OpenAccessOnly bool `json:"open_access_only,omitempty" yaml:"open_access_only,omitempty"`

	// Providers names the providers to query. Names that do not match a
	// registered provider are ignored.
	Providers []string `json:"providers" yaml:"providers"`
}
