// -----------------------------------------------------------------------
// Gemini Search - Web search via Gemini GoogleSearch grounding
// -----------------------------------------------------------------------

package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
	"google.golang.org/genai"
)

// GeminiSearch implements SearchCapability using the Gemini SDK with
// GoogleSearch grounding. Grounding chunks become search results; the model
// text supplies per-source snippets where support attribution allows.
type GeminiSearch struct {
	config *common.GeminiConfig
	logger arbor.ILogger
	client *genai.Client
}

// NewGeminiSearch creates the grounded search capability.
func NewGeminiSearch(ctx context.Context, config *common.GeminiConfig, logger arbor.ILogger) (*GeminiSearch, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required for grounded search (set via GEMINI_API_KEY or gemini.api_key in config)")
	}
	if config.Model == "" {
		config.Model = "gemini-3-flash-preview"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	logger.Debug().Str("model", config.Model).Msg("Gemini search capability initialized")

	return &GeminiSearch{
		config: config,
		logger: logger,
		client: client,
	}, nil
}

var _ interfaces.SearchCapability = (*GeminiSearch)(nil)

// Search runs one grounded query and returns up to maxResults sources.
func (g *GeminiSearch) Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	searchTool := &genai.Tool{GoogleSearch: &genai.GoogleSearch{}}
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{searchTool},
	}

	prompt := fmt.Sprintf(`Search the web for evidence on the following claim and summarize what the sources say.

Claim: %s`, query)

	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.config.Model,
		[]*genai.Content{
			genai.NewContentFromText(prompt, genai.RoleUser),
		},
		config,
	)
	if err != nil {
		return nil, fmt.Errorf("gemini grounded search failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, nil
	}

	candidate := resp.Candidates[0]

	var summary strings.Builder
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			summary.WriteString(part.Text)
		}
	}

	if candidate.GroundingMetadata == nil || candidate.GroundingMetadata.GroundingChunks == nil {
		return nil, nil
	}

	results := make([]models.SearchResult, 0, maxResults)
	for _, chunk := range candidate.GroundingMetadata.GroundingChunks {
		if chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		results = append(results, models.SearchResult{
			Title:   chunk.Web.Title,
			URL:     chunk.Web.URI,
			Snippet: snippetFor(summary.String(), chunk.Web.Title),
		})
		if len(results) >= maxResults {
			break
		}
	}

	g.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Msg("Gemini grounded search completed")

	return results, nil
}

// Provider returns the provider id recorded on jobs.
func (g *GeminiSearch) Provider() string {
	return "gemini"
}

// snippetFor extracts a sentence from the grounded summary that mentions the
// source title, falling back to the summary's opening sentence.
func snippetFor(summary, title string) string {
	sentences := strings.Split(summary, ". ")
	if title != "" {
		lower := strings.ToLower(title)
		for _, sentence := range sentences {
			if strings.Contains(strings.ToLower(sentence), lower) {
				return strings.TrimSpace(sentence)
			}
		}
	}
	if len(sentences) > 0 {
		return strings.TrimSpace(sentences[0])
	}
	return ""
}
