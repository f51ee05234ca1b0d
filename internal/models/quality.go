// -----------------------------------------------------------------------
// Quality - Six-dimension deck quality score
// -----------------------------------------------------------------------

package models

// Quality dimension names, in canonical (weight-descending) order.
const (
	DimSlideLogic        = "slide_logic"
	DimMECEStructure     = "mece_structure"
	DimSoWhat            = "so_what"
	DimDataQuality       = "data_quality"
	DimChartAccuracy     = "chart_accuracy"
	DimVisualConsistency = "visual_consistency"
)

// QualityDimensions lists the dimensions in canonical order.
var QualityDimensions = []string{
	DimSlideLogic,
	DimMECEStructure,
	DimSoWhat,
	DimDataQuality,
	DimChartAccuracy,
	DimVisualConsistency,
}

// QualityWeights are the fixed per-dimension weights. They sum to 1.0.
var QualityWeights = map[string]float64{
	DimSlideLogic:        0.25,
	DimMECEStructure:     0.25,
	DimSoWhat:            0.25,
	DimDataQuality:       0.15,
	DimChartAccuracy:     0.05,
	DimVisualConsistency: 0.05,
}

// QualityPassThreshold is the minimum overall score for a passing deck.
const QualityPassThreshold = 70

// DimensionScore is one scored dimension with its improvement note.
type DimensionScore struct {
	Dimension string `json:"dimension"`
	Score     int    `json:"score"` // 0-100
	Comment   string `json:"comment,omitempty"`
}

// QualityScore is the output of the quality stage.
type QualityScore struct {
	OverallScore int              `json:"overall_score"` // 0-100, weighted
	Passed       bool             `json:"passed"`
	Dimensions   []DimensionScore `json:"dimensions"`
	Suggestions  []string         `json:"suggestions"` // 3-5, worst dimension first
}

// Dimension returns the score entry for a named dimension, or nil.
func (q *QualityScore) Dimension(name string) *DimensionScore {
	for i := range q.Dimensions {
		if q.Dimensions[i].Dimension == name {
			return &q.Dimensions[i]
		}
	}
	return nil
}
