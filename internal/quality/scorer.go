// -----------------------------------------------------------------------
// Quality Scorer - Rule-based six-dimension deck scoring
// -----------------------------------------------------------------------

package quality

import (
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/models"
)

// dimensionPassBar is the per-dimension bar below which a suggestion is
// generated (70% of the dimension's 0-100 range).
const dimensionPassBar = 70

// Scorer computes the deck quality scorecard. Every dimension is a pure,
// inspectable rule over the storyline and research data; the overall score
// is the fixed-weight sum clamped to [0,100].
type Scorer struct {
	logger arbor.ILogger
}

// NewScorer creates the quality scorer.
func NewScorer(logger arbor.ILogger) *Scorer {
	return &Scorer{logger: logger}
}

// Score computes the full quality scorecard for a job's outputs.
func (s *Scorer) Score(storyline *models.Storyline, research *models.ResearchResults) *models.QualityScore {
	dims := []models.DimensionScore{
		{Dimension: models.DimSlideLogic, Score: scoreSlideLogic(storyline)},
		{Dimension: models.DimMECEStructure, Score: scoreMECEStructure(storyline)},
		{Dimension: models.DimSoWhat, Score: scoreSoWhat(storyline)},
		{Dimension: models.DimDataQuality, Score: scoreDataQuality(research)},
		{Dimension: models.DimChartAccuracy, Score: scoreChartAccuracy(research)},
		{Dimension: models.DimVisualConsistency, Score: scoreVisualConsistency(research)},
	}

	overall := 0.0
	for _, d := range dims {
		overall += float64(d.Score) * models.QualityWeights[d.Dimension]
	}
	overallScore := clamp(int(overall + 0.5))

	score := &models.QualityScore{
		OverallScore: overallScore,
		Passed:       overallScore >= models.QualityPassThreshold,
		Dimensions:   dims,
		Suggestions:  buildSuggestions(dims),
	}

	s.logger.Debug().
		Int("overall", score.OverallScore).
		Bool("passed", score.Passed).
		Msg("Quality score computed")

	return score
}

// scoreSlideLogic checks narrative completeness: each SCQA field present
// (15 points apiece), a governing thought (20) and a non-empty key line (20).
func scoreSlideLogic(storyline *models.Storyline) int {
	score := 0
	for _, field := range []string{
		storyline.SCQA.Situation,
		storyline.SCQA.Complication,
		storyline.SCQA.Question,
		storyline.SCQA.Answer,
	} {
		if strings.TrimSpace(field) != "" {
			score += 15
		}
	}
	if strings.TrimSpace(storyline.GoverningThought) != "" {
		score += 20
	}
	if len(storyline.KeyLine) > 0 {
		score += 20
	}
	return clamp(score)
}

// scoreMECEStructure checks the hypothesis set: two or more hypotheses (40),
// all statements pairwise distinct (30), and a key line that tracks the
// hypothesis count within one entry (30).
func scoreMECEStructure(storyline *models.Storyline) int {
	score := 0
	n := len(storyline.Hypotheses)
	if n >= 2 {
		score += 40
	}

	distinct := true
	seen := make(map[string]bool)
	for _, h := range storyline.Hypotheses {
		key := strings.ToLower(strings.TrimSpace(h.Statement))
		if seen[key] {
			distinct = false
			break
		}
		seen[key] = true
	}
	if distinct && n > 0 {
		score += 30
	}

	diff := len(storyline.KeyLine) - n
	if diff >= -1 && diff <= 1 && len(storyline.KeyLine) > 0 {
		score += 30
	}
	return clamp(score)
}

// scoreSoWhat checks actionability: a concise answer under 400 characters
// (40), a single-sentence governing thought (30), and a rationale on every
// hypothesis (30).
func scoreSoWhat(storyline *models.Storyline) int {
	score := 0
	answer := strings.TrimSpace(storyline.SCQA.Answer)
	if answer != "" && len(answer) <= 400 {
		score += 40
	}

	thought := strings.TrimSpace(storyline.GoverningThought)
	if thought != "" && strings.Count(strings.TrimSuffix(thought, "."), ".") == 0 {
		score += 30
	}

	if len(storyline.Hypotheses) > 0 {
		withRationale := 0
		for _, h := range storyline.Hypotheses {
			if strings.TrimSpace(h.Rationale) != "" {
				withRationale++
			}
		}
		score += 30 * withRationale / len(storyline.Hypotheses)
	}
	return clamp(score)
}

// scoreDataQuality checks evidence coverage: the fraction of hypotheses with
// any evidence (60) plus the fraction with a resolved validation (40).
func scoreDataQuality(research *models.ResearchResults) int {
	n := len(research.Hypotheses)
	if n == 0 {
		return 0
	}

	withEvidence := 0
	resolved := 0
	for _, h := range research.Hypotheses {
		if len(h.Evidence) > 0 {
			withEvidence++
		}
		if h.Validated != nil {
			resolved++
		}
	}
	return clamp(60*withEvidence/n + 40*resolved/n)
}

// scoreChartAccuracy checks citation integrity: the fraction of evidence
// entries carrying a positive citation index and a non-empty URL.
func scoreChartAccuracy(research *models.ResearchResults) int {
	total := 0
	sound := 0
	for _, h := range research.Hypotheses {
		for _, e := range h.Evidence {
			total++
			if e.CitationIndex >= 1 && e.URL != "" {
				sound++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return clamp(100 * sound / total)
}

// scoreVisualConsistency checks excerpt hygiene: the fraction of evidence
// entries with a non-empty quote of at most 500 characters.
func scoreVisualConsistency(research *models.ResearchResults) int {
	total := 0
	clean := 0
	for _, h := range research.Hypotheses {
		for _, e := range h.Evidence {
			total++
			if q := strings.TrimSpace(e.Quote); q != "" && len(q) <= 500 {
				clean++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return clamp(100 * clean / total)
}

// buildSuggestions generates 3-5 improvement suggestions: one per dimension
// below its pass bar, ordered worst-first, padded with the lowest-scoring
// remaining dimensions up to 3, capped at 5.
func buildSuggestions(dims []models.DimensionScore) []string {
	sorted := make([]models.DimensionScore, len(dims))
	copy(sorted, dims)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score < sorted[j].Score
	})

	var suggestions []string
	for _, d := range sorted {
		if d.Score < dimensionPassBar && len(suggestions) < 5 {
			suggestions = append(suggestions, suggestionFor(d.Dimension))
		}
	}
	for _, d := range sorted {
		if len(suggestions) >= 3 {
			break
		}
		if d.Score >= dimensionPassBar {
			suggestions = append(suggestions, suggestionFor(d.Dimension))
		}
	}
	return suggestions
}

func suggestionFor(dimension string) string {
	switch dimension {
	case models.DimSlideLogic:
		return "Complete the SCQA narrative: every deck needs a situation, complication, question, answer, governing thought and key line."
	case models.DimMECEStructure:
		return "Restructure the hypotheses to be mutually exclusive and align the key line with one argument per hypothesis."
	case models.DimSoWhat:
		return "Sharpen the answer into a single actionable recommendation and give each hypothesis an explicit rationale."
	case models.DimDataQuality:
		return "Strengthen the evidence base: several hypotheses lack enough sources to be validated or refuted."
	case models.DimChartAccuracy:
		return "Repair citation integrity: every evidence excerpt must reference a numbered source with a working URL."
	case models.DimVisualConsistency:
		return "Tidy the evidence excerpts: keep every quote present and short enough to fit its slide."
	default:
		return "Review the deck against the quality checklist."
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
