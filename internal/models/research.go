// -----------------------------------------------------------------------
// Research - Evidence, citations and per-hypothesis research findings
// -----------------------------------------------------------------------

package models

// SearchResult is a raw hit from a search capability before classification.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Date    string `json:"date,omitempty"`
}

// ConfidenceLevel grades a hypothesis by evidence volume and balance. It is
// derived from (kept count, support:refute ratio), never set directly.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// Evidence is one kept, cited search result attached to a hypothesis.
// Results classified as irrelevant are dropped before this point, so
// Supports is a plain boolean relative to the owning hypothesis.
type Evidence struct {
	Source   string `json:"source"` // source title
	URL      string `json:"url"`
	Quote    string `json:"quote"`
	Supports bool   `json:"supports"`
	Date     string `json:"date,omitempty"`
	// CitationIndex is the 1-based position in the job citation table.
	CitationIndex int `json:"citation_index"`
}

// HypothesisResearch is the aggregated finding for one hypothesis.
type HypothesisResearch struct {
	HypothesisID int             `json:"hypothesis_id"`
	Statement    string          `json:"statement"`
	Evidence     []Evidence      `json:"evidence"`
	SupportCount int             `json:"support_count"`
	RefuteCount  int             `json:"refute_count"`
	Confidence   ConfidenceLevel `json:"confidence"`
	// Validated mirrors the hypothesis tri-state: true when supporting
	// evidence strictly outnumbers refuting, false for the reverse, nil on
	// a tie or zero evidence.
	Validated *bool `json:"validated"`
}

// Citation is one entry in the job-wide source table, numbered by first
// appearance across hypotheses in storyline order.
type Citation struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ResearchResults is the output of the research stage: one finding per
// hypothesis in storyline order plus the deduplicated citation table.
type ResearchResults struct {
	Hypotheses []HypothesisResearch `json:"hypotheses"`
	Citations  []Citation           `json:"citations"`
}

// TotalEvidence returns the kept-evidence count across all hypotheses.
func (r *ResearchResults) TotalEvidence() int {
	total := 0
	for _, h := range r.Hypotheses {
		total += len(h.Evidence)
	}
	return total
}
