// -----------------------------------------------------------------------
// Storyline Agent - SCQA narrative and hypothesis generation
// -----------------------------------------------------------------------

package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
)

const storylineSystemPrompt = `You are a management consultant structuring a presentation.
Given a business topic, produce an SCQA narrative (Situation, Complication, Question, Answer),
a one-sentence governing thought, a key line of supporting arguments, and a set of mutually
exclusive, testable hypotheses that support the answer.
Respond with JSON only, no prose, in this shape:
{
  "scqa": {"situation": "...", "complication": "...", "question": "...", "answer": "..."},
  "governing_thought": "...",
  "key_line": ["...", "..."],
  "hypotheses": [{"statement": "...", "rationale": "..."}]
}`

// StorylineAgent implements StructureCapability over an LLMService. The
// model response is extracted as JSON, bounds-checked against the deck
// length and normalized before use.
type StorylineAgent struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

// NewStorylineAgent creates the structure capability.
func NewStorylineAgent(llm interfaces.LLMService, logger arbor.ILogger) *StorylineAgent {
	return &StorylineAgent{
		llm:    llm,
		logger: logger,
	}
}

var _ interfaces.StructureCapability = (*StorylineAgent)(nil)

// GenerateStoryline produces the SCQA frame and hypothesis set for a topic.
func (a *StorylineAgent) GenerateStoryline(ctx context.Context, topic string, length models.DeckLength) (*models.Storyline, error) {
	cfg := models.LengthConfigFor(length)

	prompt := fmt.Sprintf(`Topic: %s

Produce the SCQA and between %d and %d hypotheses.`, topic, cfg.MinHypotheses, cfg.MaxHypotheses)

	response, err := a.llm.Complete(ctx, storylineSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("storyline generation failed: %w", err)
	}

	raw, err := common.ExtractJSON(response)
	if err != nil {
		return nil, fmt.Errorf("storyline response is not valid JSON: %w", err)
	}

	var storyline models.Storyline
	if err := json.Unmarshal([]byte(raw), &storyline); err != nil {
		return nil, fmt.Errorf("failed to parse storyline response: %w", err)
	}

	storyline.Normalize()

	if err := storyline.Validate(length); err != nil {
		return nil, fmt.Errorf("storyline validation failed: %w", err)
	}

	a.logger.Debug().
		Str("topic", topic).
		Int("hypotheses", len(storyline.Hypotheses)).
		Msg("Storyline generated")

	return &storyline, nil
}

// Provider returns the provider id recorded on jobs.
func (a *StorylineAgent) Provider() string {
	return a.llm.Provider()
}
