// -----------------------------------------------------------------------
// Evidence Classifier - Lexical stance classification of search results
// -----------------------------------------------------------------------

package research

import (
	"strings"

	"github.com/ternarybob/suadeo/internal/models"
)

// Stance is the classification of a search result against its hypothesis.
type Stance int

const (
	StanceIrrelevant Stance = iota
	StanceSupports
	StanceRefutes
)

// Lexical cue sets. Classification is deterministic: cue occurrences are
// counted over the result's title and snippet, and the larger count wins.
var (
	supportCues = []string{
		"confirms", "confirm", "supports", "shows", "demonstrates",
		"evidence", "growth", "increase", "rise", "gain", "expand",
		"strong", "leads", "leading", "succeed", "adoption", "momentum",
	}
	refuteCues = []string{
		"dispute", "disputes", "refute", "refutes", "contradict",
		"decline", "declines", "falls", "drop", "drops", "shrink",
		"fails", "failure", "doubt", "doubts", "overstated", "myth",
		"slump", "deny", "denies", "weak", "risk of collapse",
	}
	// Terms marking a result as about the topic space at all. A result
	// sharing no meaningful word with the hypothesis is irrelevant.
	stopWords = map[string]bool{
		"the": true, "a": true, "an": true, "and": true, "or": true,
		"of": true, "in": true, "on": true, "to": true, "for": true,
		"is": true, "are": true, "will": true, "with": true, "by": true,
		"that": true, "this": true, "has": true, "have": true, "its": true,
	}
)

// Classify grades one search result against a hypothesis statement.
// Irrelevant results carry no overlap with the hypothesis vocabulary and
// are dropped by the aggregator.
func Classify(result models.SearchResult, statement string) Stance {
	text := strings.ToLower(result.Title + " " + result.Snippet)

	if !sharesVocabulary(text, statement) {
		return StanceIrrelevant
	}

	supports := countCues(text, supportCues)
	refutes := countCues(text, refuteCues)

	switch {
	case refutes > supports:
		return StanceRefutes
	case supports > refutes:
		return StanceSupports
	default:
		// No directional cues: a topical result defaults to supporting,
		// matching how search snippets surface confirming coverage.
		if supports == 0 && refutes == 0 {
			return StanceSupports
		}
		return StanceIrrelevant
	}
}

func countCues(text string, cues []string) int {
	count := 0
	for _, cue := range cues {
		count += strings.Count(text, cue)
	}
	return count
}

// sharesVocabulary reports whether the result text contains at least one
// meaningful word from the hypothesis statement.
func sharesVocabulary(text, statement string) bool {
	for _, word := range strings.Fields(strings.ToLower(statement)) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if len(word) < 3 || stopWords[word] {
			continue
		}
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
