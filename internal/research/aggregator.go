// -----------------------------------------------------------------------
// Evidence Aggregator - Search, classify, grade and cite per hypothesis
// -----------------------------------------------------------------------

package research

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
)

// resultsPerQuery bounds how many hits one search query contributes before
// classification and deduplication.
const resultsPerQuery = 5

// Aggregator turns raw search results into per-hypothesis evidence with a
// supports/refutes judgment, a derived confidence level, and entries in the
// job-scoped citation table.
type Aggregator struct {
	search   interfaces.SearchCapability
	enricher interfaces.QuoteEnricher
	logger   arbor.ILogger
}

// NewAggregator creates the evidence aggregator. enricher may be nil;
// snippets are then used as quotes unchanged.
func NewAggregator(search interfaces.SearchCapability, enricher interfaces.QuoteEnricher, logger arbor.ILogger) *Aggregator {
	return &Aggregator{
		search:   search,
		enricher: enricher,
		logger:   logger,
	}
}

// Research investigates the storyline's hypotheses in order and returns the
// research results with the completed citation table. A failed query is
// non-fatal; a hypothesis where every query fails is recorded with zero
// evidence and low confidence rather than failing the stage.
func (a *Aggregator) Research(ctx context.Context, storyline *models.Storyline, targetSources int) (*models.ResearchResults, error) {
	table := NewCitationTable()
	results := &models.ResearchResults{}

	for i := range storyline.Hypotheses {
		h := &storyline.Hypotheses[i]
		finding := a.researchHypothesis(ctx, h, targetSources, table)
		h.Validated = finding.Validated
		results.Hypotheses = append(results.Hypotheses, *finding)
	}

	results.Citations = table.Citations()
	return results, nil
}

// researchHypothesis runs the aggregation algorithm for one hypothesis.
func (a *Aggregator) researchHypothesis(ctx context.Context, h *models.Hypothesis, targetSources int, table *CitationTable) *models.HypothesisResearch {
	finding := &models.HypothesisResearch{
		HypothesisID: h.ID,
		Statement:    h.Statement,
	}

	seen := make(map[string]bool)
	failedQueries := 0

	for _, query := range ExpandQueries(h.Statement) {
		hits, err := a.search.Search(ctx, query, resultsPerQuery)
		if err != nil {
			failedQueries++
			a.logger.Warn().
				Err(err).
				Int("hypothesis_id", h.ID).
				Str("query", query).
				Msg("Search query failed, continuing with remaining queries")
			continue
		}

		for _, hit := range hits {
			if hit.URL == "" || seen[hit.URL] {
				continue
			}

			stance := Classify(hit, h.Statement)
			if stance == StanceIrrelevant {
				continue
			}
			seen[hit.URL] = true

			quote := hit.Snippet
			if quote == "" && a.enricher != nil {
				quote = a.enricher.ExtractQuote(ctx, hit.URL)
			}
			if quote == "" {
				quote = hit.Title
			}

			finding.Evidence = append(finding.Evidence, models.Evidence{
				Source:        hit.Title,
				URL:           hit.URL,
				Quote:         quote,
				Supports:      stance == StanceSupports,
				Date:          hit.Date,
				CitationIndex: table.Register(hit.URL, hit.Title),
			})
		}
	}

	for _, e := range finding.Evidence {
		if e.Supports {
			finding.SupportCount++
		} else {
			finding.RefuteCount++
		}
	}

	finding.Validated = deriveValidated(finding.SupportCount, finding.RefuteCount)
	finding.Confidence = DeriveConfidence(len(finding.Evidence), finding.SupportCount, finding.RefuteCount, targetSources)

	a.logger.Debug().
		Int("hypothesis_id", h.ID).
		Int("evidence", len(finding.Evidence)).
		Int("supporting", finding.SupportCount).
		Int("refuting", finding.RefuteCount).
		Int("failed_queries", failedQueries).
		Str("confidence", string(finding.Confidence)).
		Msg("Hypothesis researched")

	return finding
}

// deriveValidated computes the tri-state validation: true when supporting
// evidence strictly outnumbers refuting, false for the reverse, nil on a
// tie or zero evidence.
func deriveValidated(supports, refutes int) *bool {
	switch {
	case supports > refutes:
		v := true
		return &v
	case refutes > supports:
		v := false
		return &v
	default:
		return nil
	}
}

// DeriveConfidence grades a hypothesis from its kept-evidence count and the
// support:refute balance. High needs a full evidence set and a 2:1 majority
// in either direction; low marks thin evidence or a genuinely contested
// near-tie; everything else is medium. More or stronger evidence never
// lowers the grade.
func DeriveConfidence(kept, supports, refutes, target int) models.ConfidenceLevel {
	if kept == 0 {
		return models.ConfidenceLow
	}

	lopsided := isLopsided(supports, refutes)

	if kept >= target && lopsided {
		return models.ConfidenceHigh
	}
	if kept*2 < target || !lopsided {
		return models.ConfidenceLow
	}
	return models.ConfidenceMedium
}

// isLopsided reports whether the support:refute ratio is at least 2:1 in
// either direction. A zero count on one side with any evidence on the other
// counts as lopsided.
func isLopsided(supports, refutes int) bool {
	if supports == 0 || refutes == 0 {
		return supports+refutes > 0
	}
	return supports >= 2*refutes || refutes >= 2*supports
}
