package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/models"
)

func boolPtr(v bool) *bool { return &v }

func completeStoryline() *models.Storyline {
	return &models.Storyline{
		SCQA: models.SCQA{
			Situation:    "The company leads a stable market",
			Complication: "New entrants are undercutting prices",
			Question:     "How should the company respond",
			Answer:       "Invest in premium segments where price pressure is weakest",
		},
		GoverningThought: "Move upmarket before the price war reaches the core business",
		KeyLine: []string{
			"Premium demand is growing",
			"Low-end margins are collapsing",
			"The brand supports a premium position",
		},
		Hypotheses: []models.Hypothesis{
			{ID: 1, Statement: "Premium demand is growing", Rationale: "Category data shows a shift"},
			{ID: 2, Statement: "Low-end margins are collapsing", Rationale: "Entrants price below cost"},
			{ID: 3, Statement: "The brand supports a premium position", Rationale: "Survey NPS is top quartile"},
		},
	}
}

func completeResearch() *models.ResearchResults {
	evidence := func(idx int) []models.Evidence {
		return []models.Evidence{
			{Source: "Industry report", URL: "https://example.com/r", Quote: "Clear shift toward premium", Supports: true, CitationIndex: idx},
		}
	}
	return &models.ResearchResults{
		Hypotheses: []models.HypothesisResearch{
			{HypothesisID: 1, Evidence: evidence(1), SupportCount: 1, Confidence: models.ConfidenceMedium, Validated: boolPtr(true)},
			{HypothesisID: 2, Evidence: evidence(2), SupportCount: 1, Confidence: models.ConfidenceMedium, Validated: boolPtr(true)},
			{HypothesisID: 3, Evidence: evidence(3), SupportCount: 1, Confidence: models.ConfidenceMedium, Validated: boolPtr(true)},
		},
		Citations: []models.Citation{
			{Index: 1, Title: "Industry report", URL: "https://example.com/r"},
		},
	}
}

func TestScoreCompleteDeckPasses(t *testing.T) {
	scorer := NewScorer(arbor.NewLogger())
	score := scorer.Score(completeStoryline(), completeResearch())

	assert.Equal(t, 100, score.OverallScore)
	assert.True(t, score.Passed)
	require.Len(t, score.Dimensions, 6)
	for _, d := range score.Dimensions {
		assert.Equal(t, 100, d.Score, d.Dimension)
	}

	// Nothing is below the bar, so suggestions pad to the minimum of three.
	assert.Len(t, score.Suggestions, 3)
}

func TestScoreEmptyDeckFails(t *testing.T) {
	scorer := NewScorer(arbor.NewLogger())
	score := scorer.Score(&models.Storyline{}, &models.ResearchResults{})

	assert.Equal(t, 0, score.OverallScore)
	assert.False(t, score.Passed)

	// All six dimensions are below the bar; suggestions cap at five.
	assert.Len(t, score.Suggestions, 5)
}

func TestScoreWeightsDriveOverall(t *testing.T) {
	// Perfect storyline, empty research: the three storyline dimensions score
	// 100 and the three research dimensions score 0.
	scorer := NewScorer(arbor.NewLogger())
	score := scorer.Score(completeStoryline(), &models.ResearchResults{})

	// .25 + .25 + .25 of 100 = 75
	assert.Equal(t, 75, score.OverallScore)
	assert.True(t, score.Passed)
}

func TestScoreSuggestionsWorstFirst(t *testing.T) {
	storyline := completeStoryline()
	research := completeResearch()
	// Break citation integrity only: evidence loses its citation index.
	for i := range research.Hypotheses {
		research.Hypotheses[i].Evidence[0].CitationIndex = 0
	}

	scorer := NewScorer(arbor.NewLogger())
	score := scorer.Score(storyline, research)

	require.NotEmpty(t, score.Suggestions)
	assert.Contains(t, score.Suggestions[0], "citation")

	chart := score.Dimension(models.DimChartAccuracy)
	require.NotNil(t, chart)
	assert.Equal(t, 0, chart.Score)
}

func TestScoreDimensionRules(t *testing.T) {
	t.Run("missing governing thought costs slide logic", func(t *testing.T) {
		storyline := completeStoryline()
		storyline.GoverningThought = ""
		assert.Equal(t, 80, scoreSlideLogic(storyline))
	})

	t.Run("duplicate hypotheses fail distinctness", func(t *testing.T) {
		storyline := completeStoryline()
		storyline.Hypotheses[2].Statement = storyline.Hypotheses[0].Statement
		assert.Equal(t, 70, scoreMECEStructure(storyline))
	})

	t.Run("multi-sentence governing thought costs so-what", func(t *testing.T) {
		storyline := completeStoryline()
		storyline.GoverningThought = "Move upmarket. Also cut costs."
		assert.Equal(t, 70, scoreSoWhat(storyline))
	})

	t.Run("unresolved hypotheses cost data quality", func(t *testing.T) {
		research := completeResearch()
		research.Hypotheses[0].Validated = nil
		research.Hypotheses[1].Validated = nil
		// 60 for full evidence coverage plus 40 * 1/3 resolved.
		assert.Equal(t, 73, scoreDataQuality(research))
	})

	t.Run("oversized quote costs visual consistency", func(t *testing.T) {
		research := completeResearch()
		long := make([]byte, 501)
		for i := range long {
			long[i] = 'x'
		}
		research.Hypotheses[0].Evidence[0].Quote = string(long)
		assert.Equal(t, 66, scoreVisualConsistency(research))
	})
}
