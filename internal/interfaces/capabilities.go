package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/suadeo/internal/models"
)

// ErrPermanent wraps collaborator failures that a retry cannot cure, such as
// a provider rejecting the request as malformed or unauthorized. Callers
// fail the stage immediately instead of retrying.
var ErrPermanent = errors.New("permanent failure")

// StructureCapability turns a topic into an SCQA storyline with a
// length-bounded hypothesis set.
type StructureCapability interface {
	GenerateStoryline(ctx context.Context, topic string, length models.DeckLength) (*models.Storyline, error)

	// Provider returns the provider id recorded on jobs.
	Provider() string
}

// SearchCapability runs one query and returns ranked results.
type SearchCapability interface {
	Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error)

	// Provider returns the provider id recorded on jobs
	// ("gemini", "brave", "mock").
	Provider() string
}

// QuoteEnricher optionally fetches a result page to extract a usable quote
// when the search snippet is empty. Enrichment failures are not errors;
// implementations return "" and the caller keeps the snippet.
type QuoteEnricher interface {
	ExtractQuote(ctx context.Context, url string) string
}

// RenderCapability turns a completed job's storyline and research into a
// deck document on disk and returns its path.
type RenderCapability interface {
	RenderDeck(ctx context.Context, job *models.Job) (string, error)
}
