// -----------------------------------------------------------------------
// Storyline - SCQA narrative frame and hypothesis set for a deck
// -----------------------------------------------------------------------

package models

import "fmt"

// SCQA is the Situation / Complication / Question / Answer narrative frame
// produced by the structure capability.
type SCQA struct {
	Situation    string `json:"situation"`
	Complication string `json:"complication"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
}

// Hypothesis is one testable claim supporting the storyline answer. IDs are
// 1-based sequence numbers in storyline order. Validated stays unset until
// research completes: true when supporting evidence strictly outnumbers
// refuting, false for the reverse, nil on a tie or zero evidence.
type Hypothesis struct {
	ID        int    `json:"id"`
	Statement string `json:"statement"`
	Rationale string `json:"rationale,omitempty"`
	Validated *bool  `json:"validated"`
}

// Storyline is the output of the storyline stage: the narrative frame, the
// governing thought and key line, and the ordered hypothesis set the
// research stage investigates.
type Storyline struct {
	SCQA             SCQA         `json:"scqa"`
	GoverningThought string       `json:"governing_thought"`
	KeyLine          []string     `json:"key_line"`
	Hypotheses       []Hypothesis `json:"hypotheses"`
}

// Validate checks the storyline against the deck-length bounds.
func (s *Storyline) Validate(length DeckLength) error {
	if s.SCQA.Situation == "" || s.SCQA.Complication == "" ||
		s.SCQA.Question == "" || s.SCQA.Answer == "" {
		return fmt.Errorf("storyline SCQA has empty fields")
	}
	if s.GoverningThought == "" {
		return fmt.Errorf("storyline has no governing thought")
	}
	cfg := LengthConfigFor(length)
	n := len(s.Hypotheses)
	if n < cfg.MinHypotheses || n > cfg.MaxHypotheses {
		return fmt.Errorf("storyline has %d hypotheses, expected %d-%d for %s deck",
			n, cfg.MinHypotheses, cfg.MaxHypotheses, length)
	}
	for i, h := range s.Hypotheses {
		if h.Statement == "" {
			return fmt.Errorf("hypothesis %d has empty statement", i+1)
		}
	}
	return nil
}

// Normalize assigns sequential 1-based ids in storyline order. Provider
// output often omits or misnumbers them.
func (s *Storyline) Normalize() {
	for i := range s.Hypotheses {
		s.Hypotheses[i].ID = i + 1
	}
}

// Hypothesis returns the hypothesis with the given id, or nil.
func (s *Storyline) Hypothesis(id int) *Hypothesis {
	for i := range s.Hypotheses {
		if s.Hypotheses[i].ID == id {
			return &s.Hypotheses[i]
		}
	}
	return nil
}
