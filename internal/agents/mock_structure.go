package agents

import (
	"context"
	"fmt"

	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
)

// MockStructure is a deterministic offline structure capability for tests
// and demo runs. It always emits the minimum hypothesis count for the
// requested length.
type MockStructure struct{}

// NewMockStructure creates the offline structure capability.
func NewMockStructure() *MockStructure {
	return &MockStructure{}
}

var _ interfaces.StructureCapability = (*MockStructure)(nil)

// GenerateStoryline returns a synthetic storyline derived from the topic.
func (m *MockStructure) GenerateStoryline(ctx context.Context, topic string, length models.DeckLength) (*models.Storyline, error) {
	cfg := models.LengthConfigFor(length)

	storyline := &models.Storyline{
		SCQA: models.SCQA{
			Situation:    fmt.Sprintf("The market around %q is established and well understood.", topic),
			Complication: fmt.Sprintf("Recent shifts have put the assumptions behind %q under pressure.", topic),
			Question:     fmt.Sprintf("How should the business respond to %q?", topic),
			Answer:       fmt.Sprintf("A focused strategy on %q captures the opportunity while containing risk.", topic),
		},
		GoverningThought: fmt.Sprintf("Acting decisively on %q outperforms waiting for the market to settle.", topic),
	}

	for i := 0; i < cfg.MinHypotheses; i++ {
		storyline.KeyLine = append(storyline.KeyLine,
			fmt.Sprintf("Argument %d supports the recommended course on %s", i+1, topic))
		storyline.Hypotheses = append(storyline.Hypotheses, models.Hypothesis{
			Statement: fmt.Sprintf("Driver %d materially affects outcomes for %s", i+1, topic),
			Rationale: "Derived from the answer's core assumption",
		})
	}
	storyline.Normalize()

	return storyline, nil
}

// Provider returns the provider id recorded on jobs.
func (m *MockStructure) Provider() string {
	return "mock"
}
