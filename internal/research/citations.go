// -----------------------------------------------------------------------
// Citation Table - Job-scoped URL deduplication and numbering
// -----------------------------------------------------------------------

package research

import (
	"fmt"

	"github.com/ternarybob/suadeo/internal/models"
)

// CitationTable assigns stable 1-based indices to source URLs in first-seen
// order across all hypotheses of one job. The same URL cited under two
// hypotheses receives one index.
type CitationTable struct {
	indices   map[string]int
	citations []models.Citation
}

// NewCitationTable creates an empty job-scoped citation table.
func NewCitationTable() *CitationTable {
	return &CitationTable{
		indices: make(map[string]int),
	}
}

// Register returns the citation index for a URL, assigning the next index
// on first sight. The title recorded is the one seen first.
func (c *CitationTable) Register(url, title string) int {
	if idx, ok := c.indices[url]; ok {
		return idx
	}

	idx := len(c.citations) + 1
	c.indices[url] = idx
	c.citations = append(c.citations, models.Citation{
		Index: idx,
		Title: title,
		URL:   url,
	})
	return idx
}

// Citations returns the table entries in index order.
func (c *CitationTable) Citations() []models.Citation {
	return c.citations
}

// FormatReference renders one citation as "[index] title, url".
func FormatReference(citation models.Citation) string {
	return fmt.Sprintf("[%d] %s, %s", citation.Index, citation.Title, citation.URL)
}
