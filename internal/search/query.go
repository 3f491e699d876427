// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"time"

	"github.com/pdiddy/scholar-search/pkg/types"
)

// now is the clock providers use for the upper bound of a year range.
// Tests replace it.
var now = time.Now

// maxAuthors caps the author list kept per record.
const maxAuthors = 3

// yearRange returns the inclusive publication-year window for q and whether
// q restricts years at all.
func yearRange(q types.Query) (from, to int, ok bool) {
	if q.MinYear <= 0 {
		return 0, 0, false
	}
	to = now().Year()
	if q.MinYear > to {
		to = q.MinYear
	}
	return q.MinYear, to, true
}
