// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-search/pkg/types"
)

func rec(title, abstract string, citations *int) types.Record {
	return types.Record{RawRecord: types.RawRecord{Title: title, Abstract: abstract, Citations: citations}}
}

func TestScore(t *testing.T) {
	terms := queryTerms("Cancer Treatment")
	tests := []struct {
		name string
		r    types.Record
		want int
	}{
		{"both in title", rec("New cancer treatment", "", nil), 200},
		{"both in abstract", rec("A study", "cancer and its treatment", nil), 20},
		{"title wins over abstract", rec("Cancer outcomes", "treatment of cancer", nil), 110},
		{"case insensitive", rec("CANCER", "TREATMENT", nil), 110},
		{"no match", rec("Unrelated", "nothing here", nil), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.r, terms))
		})
	}
}

func TestRankTitleMatchBeatsAbstractMatch(t *testing.T) {
	records := []types.Record{
		rec("Review", "cancer treatment", types.IntPtr(1000)),
		rec("Cancer treatment outcomes", "", nil),
	}
	Rank(records, "cancer treatment")
	assert.Equal(t, "Cancer treatment outcomes", records[0].Title)
	assert.Greater(t, records[0].RelevanceScore, records[1].RelevanceScore)
}

func TestRankCitationsBreakTies(t *testing.T) {
	records := []types.Record{
		rec("Cancer A", "", types.IntPtr(5)),
		rec("Cancer B", "", nil),
		rec("Cancer C", "", types.IntPtr(50)),
	}
	Rank(records, "cancer")

	require.Len(t, records, 3)
	assert.Equal(t, "Cancer C", records[0].Title)
	assert.Equal(t, "Cancer A", records[1].Title)
	assert.Equal(t, "Cancer B", records[2].Title)
	assert.Nil(t, records[2].Citations, "unknown citations stay unknown")
}

func TestRankEmptyQueryTerms(t *testing.T) {
	records := []types.Record{rec("One", "", types.IntPtr(1)), rec("Two", "", types.IntPtr(2))}
	Rank(records, "   ")
	assert.Equal(t, "Two", records[0].Title)
	assert.Zero(t, records[0].RelevanceScore)
}
