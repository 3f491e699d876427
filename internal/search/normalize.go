// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"

	"github.com/pdiddy/scholar-search/pkg/types"
)

// fourDigits matches a run of exactly four digits not adjacent to other digits.
var fourDigits = regexp.MustCompile(`(?:^|\D)(\d{4})(?:\D|$)`)

// NormalizeYear converts a provider's raw year into a four-digit year string
// or types.UnknownYear. Numeric values are truncated first ("2015.0" is
// 2015); otherwise the first standalone four-digit run is used
// ("2020-05-01" is 2020).
func NormalizeYear(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return types.UnknownYear
	}

	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		if y := int(f); y >= 1000 && y <= 9999 {
			return strconv.Itoa(y)
		}
	}

	if m := fourDigits.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return types.UnknownYear
}

// NormalizeTitle returns the deduplication key for a title: its letters and
// digits, lowercased, with everything else removed.
func NormalizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

var stripPolicy = bluemonday.StrictPolicy()

// CleanText removes HTML markup from provider text (PubMed and Europe PMC
// embed <i>, <sup> and similar tags) and collapses whitespace.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "<&") {
		s = html.UnescapeString(stripPolicy.Sanitize(s))
	}
	return strings.Join(strings.Fields(s), " ")
}

// joinAuthors joins up to max names with ", ". A max of zero keeps all names.
func joinAuthors(names []string, max int) string {
	var kept []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		kept = append(kept, n)
		if max > 0 && len(kept) == max {
			break
		}
	}
	return strings.Join(kept, ", ")
}
