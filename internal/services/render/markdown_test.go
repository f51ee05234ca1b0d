package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/suadeo/internal/models"
)

func boolPtr(v bool) *bool { return &v }

func deckJob() *models.Job {
	return &models.Job{
		ID:    "job_deck",
		Topic: "Should we enter the battery recycling market",
		Storyline: &models.Storyline{
			SCQA: models.SCQA{
				Situation:    "EV volumes are surging",
				Complication: "Cell supply chains are strained",
				Question:     "Can recycling close the gap",
				Answer:       "Enter recycling now while feedstock is cheap",
			},
			GoverningThought: "Recycling is the cheapest cell feedstock by 2030",
			KeyLine:          []string{"Feedstock grows with EV retirements", "Regulation favors recyclers"},
			Hypotheses: []models.Hypothesis{
				{ID: 1, Statement: "Feedstock grows with EV retirements", Validated: boolPtr(true)},
				{ID: 2, Statement: "Regulation favors recyclers"},
			},
		},
		Research: &models.ResearchResults{
			Hypotheses: []models.HypothesisResearch{
				{
					HypothesisID: 1,
					Statement:    "Feedstock grows with EV retirements",
					Evidence: []models.Evidence{
						{Source: "Battery report", URL: "https://example.com/b", Quote: "Retired packs triple by 2030", Supports: true, CitationIndex: 1},
					},
					SupportCount: 1,
					Confidence:   models.ConfidenceMedium,
					Validated:    boolPtr(true),
				},
				{
					HypothesisID: 2,
					Statement:    "Regulation favors recyclers",
					Confidence:   models.ConfidenceLow,
				},
			},
			Citations: []models.Citation{
				{Index: 1, Title: "Battery report", URL: "https://example.com/b"},
			},
		},
		QualityScore: &models.QualityScore{
			OverallScore: 82,
			Passed:       true,
			Dimensions: []models.DimensionScore{
				{Dimension: models.DimSlideLogic, Score: 90},
			},
			Suggestions: []string{"Strengthen the evidence base"},
		},
	}
}

func TestBuildDeckMarkdown(t *testing.T) {
	md := BuildDeckMarkdown(deckJob())

	assert.True(t, strings.HasPrefix(md, "# Should we enter the battery recycling market\n"))
	assert.Contains(t, md, "## Executive Summary")
	assert.Contains(t, md, "**Situation:** EV volumes are surging")
	assert.Contains(t, md, "**Governing thought:** Recycling is the cheapest cell feedstock by 2030")
	assert.Contains(t, md, "- Feedstock grows with EV retirements\n")

	// Hypothesis sections are numbered by hypothesis id.
	assert.Contains(t, md, "## 1. Feedstock grows with EV retirements")
	assert.Contains(t, md, "*Confidence: medium (1 supporting, 0 refuting) - validated*")
	assert.Contains(t, md, "- Retired packs triple by 2030 [1]")

	// A hypothesis without evidence states that plainly.
	assert.Contains(t, md, "## 2. Regulation favors recyclers")
	assert.Contains(t, md, "*Confidence: low (0 supporting, 0 refuting) - inconclusive*")
	assert.Contains(t, md, "No supporting evidence was found for this hypothesis.")

	assert.Contains(t, md, "## Quality Review")
	assert.Contains(t, md, "**Overall score: 82/100 - Passed**")

	// Sources section renders "[index] title, url".
	assert.Contains(t, md, "## Sources")
	assert.Contains(t, md, "[1] Battery report, https://example.com/b")

	// Sections appear in deck order.
	summary := strings.Index(md, "## Executive Summary")
	hyp := strings.Index(md, "## 1.")
	review := strings.Index(md, "## Quality Review")
	sources := strings.Index(md, "## Sources")
	assert.True(t, summary < hyp && hyp < review && review < sources)
}

func TestBuildDeckMarkdownWithoutOutputs(t *testing.T) {
	job := &models.Job{ID: "job_bare", Topic: "Bare topic"}
	md := BuildDeckMarkdown(job)

	assert.Equal(t, "# Bare topic\n\n", md)
}

func TestMarkdownToPDFProducesValidDocument(t *testing.T) {
	md := BuildDeckMarkdown(deckJob())

	pdfBytes, err := MarkdownToPDF(md, DefaultTemplate())
	require.NoError(t, err)
	require.NotEmpty(t, pdfBytes)
	assert.True(t, strings.HasPrefix(string(pdfBytes[:5]), "%PDF-"))
}
