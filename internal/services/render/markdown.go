// -----------------------------------------------------------------------
// Deck Builder - Assembles the deck markdown from job outputs
// -----------------------------------------------------------------------

package render

import (
	"fmt"
	"strings"

	"github.com/ternarybob/suadeo/internal/models"
)

// BuildDeckMarkdown assembles the full deck document: title, executive
// summary (SCQA), one section per hypothesis with its cited evidence,
// the quality appendix when present, and the source table.
func BuildDeckMarkdown(job *models.Job) string {
	var b strings.Builder

	b.WriteString("# " + job.Topic + "\n\n")

	if job.Storyline != nil {
		writeExecutiveSummary(&b, job.Storyline)
	}

	if job.Research != nil {
		for _, h := range job.Research.Hypotheses {
			writeHypothesisSection(&b, &h)
		}
	}

	if job.QualityScore != nil {
		writeQualityAppendix(&b, job.QualityScore)
	}

	if job.Research != nil && len(job.Research.Citations) > 0 {
		writeSources(&b, job.Research.Citations)
	}

	return b.String()
}

func writeExecutiveSummary(b *strings.Builder, storyline *models.Storyline) {
	b.WriteString("## Executive Summary\n\n")
	b.WriteString("**Situation:** " + storyline.SCQA.Situation + "\n\n")
	b.WriteString("**Complication:** " + storyline.SCQA.Complication + "\n\n")
	b.WriteString("**Question:** " + storyline.SCQA.Question + "\n\n")
	b.WriteString("**Answer:** " + storyline.SCQA.Answer + "\n\n")

	if storyline.GoverningThought != "" {
		b.WriteString("**Governing thought:** " + storyline.GoverningThought + "\n\n")
	}
	if len(storyline.KeyLine) > 0 {
		b.WriteString("**Key line:**\n\n")
		for _, k := range storyline.KeyLine {
			b.WriteString("- " + k + "\n")
		}
		b.WriteString("\n")
	}
}

func writeHypothesisSection(b *strings.Builder, h *models.HypothesisResearch) {
	fmt.Fprintf(b, "## %d. %s\n\n", h.HypothesisID, h.Statement)

	fmt.Fprintf(b, "*Confidence: %s (%d supporting, %d refuting) - %s*\n\n",
		h.Confidence, h.SupportCount, h.RefuteCount, validationLabel(h.Validated))

	if len(h.Evidence) == 0 {
		b.WriteString("No supporting evidence was found for this hypothesis.\n\n")
		return
	}

	for _, e := range h.Evidence {
		quote := e.Quote
		if quote == "" {
			quote = e.Source
		}
		fmt.Fprintf(b, "- %s [%d]\n", quote, e.CitationIndex)
	}
	b.WriteString("\n")
}

func validationLabel(validated *bool) string {
	switch {
	case validated == nil:
		return "inconclusive"
	case *validated:
		return "validated"
	default:
		return "not validated"
	}
}

func writeQualityAppendix(b *strings.Builder, q *models.QualityScore) {
	b.WriteString("## Quality Review\n\n")

	verdict := "Needs revision"
	if q.Passed {
		verdict = "Passed"
	}
	fmt.Fprintf(b, "**Overall score: %d/100 - %s**\n\n", q.OverallScore, verdict)

	b.WriteString("| Dimension | Score |\n|---|---|\n")
	for _, d := range q.Dimensions {
		fmt.Fprintf(b, "| %s | %d |\n", strings.ReplaceAll(d.Dimension, "_", " "), d.Score)
	}
	b.WriteString("\n")

	if len(q.Suggestions) > 0 {
		b.WriteString("**Suggestions:**\n\n")
		for _, s := range q.Suggestions {
			b.WriteString("- " + s + "\n")
		}
		b.WriteString("\n")
	}
}

func writeSources(b *strings.Builder, citations []models.Citation) {
	b.WriteString("## Sources\n\n")
	for _, c := range citations {
		fmt.Fprintf(b, "[%d] %s, %s\n\n", c.Index, c.Title, c.URL)
	}
}
