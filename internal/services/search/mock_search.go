package search

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
)

// MockSearch is a deterministic offline search capability for tests and
// demo runs. Results are derived from the query text alone, so the same
// query always returns the same hits.
type MockSearch struct{}

// NewMockSearch creates the offline search capability.
func NewMockSearch() *MockSearch {
	return &MockSearch{}
}

var _ interfaces.SearchCapability = (*MockSearch)(nil)

// Search returns deterministic synthetic results for the query.
func (m *MockSearch) Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	if maxResults <= 0 {
		return nil, nil
	}

	h := fnv.New32a()
	h.Write([]byte(query))
	seed := h.Sum32()

	slug := slugify(query)

	results := make([]models.SearchResult, 0, maxResults)
	for i := 0; i < maxResults; i++ {
		n := int(seed)%90 + 10 + i
		stance := "support"
		// Roughly one in four synthetic sources disputes the claim
		if (int(seed)+i)%4 == 3 {
			stance = "dispute"
		}
		results = append(results, models.SearchResult{
			Title:   fmt.Sprintf("Industry report %d: %s", i+1, query),
			URL:     fmt.Sprintf("https://example.com/research/%s/%d", slug, i+1),
			Snippet: mockSnippet(stance, query, n),
		})
	}

	return results, nil
}

// Provider returns the provider id recorded on jobs.
func (m *MockSearch) Provider() string {
	return "mock"
}

func mockSnippet(stance, query string, n int) string {
	if stance == "dispute" {
		return fmt.Sprintf("Analysts dispute the claim that %s, citing a %d%% decline in recent data.", strings.ToLower(query), n)
	}
	return fmt.Sprintf("Evidence confirms that %s, with data showing %d%% growth year over year.", strings.ToLower(query), n)
}

func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > 48 {
		slug = slug[:48]
	}
	if slug == "" {
		slug = "topic"
	}
	return slug
}
