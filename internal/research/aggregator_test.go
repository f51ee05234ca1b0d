package research

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/models"
)

// scriptedSearch returns canned results keyed by a substring of the query and
// records every query it receives.
type scriptedSearch struct {
	results map[string][]models.SearchResult
	queries []string
	err     error
}

func (s *scriptedSearch) Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	for key, hits := range s.results {
		if strings.Contains(query, key) {
			return hits, nil
		}
	}
	return nil, nil
}

func (s *scriptedSearch) Provider() string {
	return "mock"
}

func TestExpandQueries(t *testing.T) {
	queries := ExpandQueries("EV adoption accelerates")
	require.Len(t, queries, 3)
	assert.Equal(t, "EV adoption accelerates", queries[0])
	assert.Equal(t, "EV adoption accelerates market data", queries[1])
	assert.Equal(t, "EV adoption accelerates industry analysis", queries[2])
}

func TestResearchDeduplicatesAndCites(t *testing.T) {
	search := &scriptedSearch{
		results: map[string][]models.SearchResult{
			"vehicle": {
				{
					Title:   "EV sales growth continues to rise",
					URL:     "https://example.com/ev-growth",
					Snippet: "Electric vehicle sales show a strong increase year over year",
				},
				{
					Title:   "Report disputes electric vehicle sales outlook",
					URL:     "https://example.com/ev-doubt",
					Snippet: "Analysts doubt the forecast and expect sales to decline",
				},
				{
					Title:   "Cooking recipes for autumn",
					URL:     "https://example.com/recipes",
					Snippet: "Seasonal pasta dishes",
				},
			},
		},
	}

	storyline := &models.Storyline{
		Hypotheses: []models.Hypothesis{
			{ID: 1, Statement: "Electric vehicle sales keep growing"},
			{ID: 2, Statement: "Battery costs keep falling"},
		},
	}

	agg := NewAggregator(search, nil, arbor.NewLogger())
	results, err := agg.Research(context.Background(), storyline, 2)
	require.NoError(t, err)
	require.Len(t, results.Hypotheses, 2)

	// Three queries per hypothesis, in order.
	require.Len(t, search.queries, 6)
	assert.Equal(t, "Electric vehicle sales keep growing", search.queries[0])
	assert.Equal(t, "Electric vehicle sales keep growing market data", search.queries[1])
	assert.Equal(t, "Electric vehicle sales keep growing industry analysis", search.queries[2])

	first := results.Hypotheses[0]
	// The same results came back for all three queries; URL dedup keeps each
	// source once, and the irrelevant recipe hit is dropped without a citation.
	require.Len(t, first.Evidence, 2)
	assert.Equal(t, 1, first.SupportCount)
	assert.Equal(t, 1, first.RefuteCount)
	assert.Nil(t, first.Validated)

	second := results.Hypotheses[1]
	assert.Empty(t, second.Evidence)
	assert.Equal(t, models.ConfidenceLow, second.Confidence)
	assert.Nil(t, second.Validated)

	// Citation table carries only the kept sources, numbered first-seen.
	require.Len(t, results.Citations, 2)
	assert.Equal(t, 1, results.Citations[0].Index)
	assert.Equal(t, "https://example.com/ev-growth", results.Citations[0].URL)
	assert.Equal(t, 2, results.Citations[1].Index)
	assert.Equal(t, "https://example.com/ev-doubt", results.Citations[1].URL)

	// Evidence rows reference those indices.
	assert.Equal(t, 1, first.Evidence[0].CitationIndex)
	assert.Equal(t, 2, first.Evidence[1].CitationIndex)
}

func TestResearchSurvivesFailedQueries(t *testing.T) {
	search := &scriptedSearch{err: assert.AnError}
	storyline := &models.Storyline{
		Hypotheses: []models.Hypothesis{{ID: 1, Statement: "Margins will expand"}},
	}

	agg := NewAggregator(search, nil, arbor.NewLogger())
	results, err := agg.Research(context.Background(), storyline, 4)
	require.NoError(t, err)

	require.Len(t, results.Hypotheses, 1)
	assert.Empty(t, results.Hypotheses[0].Evidence)
	assert.Equal(t, models.ConfidenceLow, results.Hypotheses[0].Confidence)
	assert.Nil(t, results.Hypotheses[0].Validated)
	assert.Empty(t, results.Citations)
}

func TestResearchMirrorsValidatedOntoStoryline(t *testing.T) {
	search := &scriptedSearch{
		results: map[string][]models.SearchResult{
			"Headcount": {
				{
					Title:   "Headcount growth demonstrates strong momentum",
					URL:     "https://example.com/h1",
					Snippet: "Hiring continues to increase across the sector",
				},
				{
					Title:   "Headcount expansion leads the industry",
					URL:     "https://example.com/h2",
					Snippet: "Strong gains reported for a third straight quarter",
				},
			},
		},
	}

	storyline := &models.Storyline{
		Hypotheses: []models.Hypothesis{{ID: 1, Statement: "Headcount will keep growing"}},
	}

	agg := NewAggregator(search, nil, arbor.NewLogger())
	results, err := agg.Research(context.Background(), storyline, 2)
	require.NoError(t, err)

	require.NotNil(t, storyline.Hypotheses[0].Validated)
	assert.True(t, *storyline.Hypotheses[0].Validated)
	assert.Equal(t, models.ConfidenceHigh, results.Hypotheses[0].Confidence)
}

func TestDeriveConfidence(t *testing.T) {
	tests := []struct {
		name     string
		kept     int
		supports int
		refutes  int
		target   int
		want     models.ConfidenceLevel
	}{
		{"zero evidence is low", 0, 0, 0, 4, models.ConfidenceLow},
		{"full and unanimous is high", 4, 4, 0, 4, models.ConfidenceHigh},
		{"full and two-to-one is high", 4, 3, 1, 4, models.ConfidenceHigh},
		{"full but near-tie is low", 4, 2, 2, 4, models.ConfidenceLow},
		{"thin evidence is low", 1, 1, 0, 4, models.ConfidenceLow},
		{"half target and lopsided is medium", 2, 2, 0, 4, models.ConfidenceMedium},
		{"refuting majority can be high", 6, 1, 5, 6, models.ConfidenceHigh},
		{"three-to-two is not lopsided", 5, 3, 2, 4, models.ConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveConfidence(tt.kept, tt.supports, tt.refutes, tt.target)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCitationTableFirstSeenWins(t *testing.T) {
	table := NewCitationTable()
	assert.Equal(t, 1, table.Register("https://example.com/a", "First title"))
	assert.Equal(t, 2, table.Register("https://example.com/b", "Second title"))
	assert.Equal(t, 1, table.Register("https://example.com/a", "Renamed title"))

	citations := table.Citations()
	require.Len(t, citations, 2)
	assert.Equal(t, "First title", citations[0].Title)
}
