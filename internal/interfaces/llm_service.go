package interfaces

import "context"

// LLMService defines the chat-completion contract backing the structure
// capability. Implementations wrap a cloud provider (Anthropic) or a
// deterministic offline model for tests.
type LLMService interface {
	// Complete sends a system + user prompt pair and returns the raw model
	// text. Callers extract structured payloads from the response.
	Complete(ctx context.Context, system, prompt string) (string, error)

	// Provider returns the provider id recorded on jobs ("claude", "mock").
	Provider() string
}
