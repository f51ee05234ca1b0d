package search

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/interfaces"
)

// NewSearchCapability builds the configured search capability.
func NewSearchCapability(ctx context.Context, config *common.Config, logger arbor.ILogger) (interfaces.SearchCapability, error) {
	switch config.Providers.Search {
	case "gemini":
		return NewGeminiSearch(ctx, &config.Gemini, logger)
	case "brave":
		return NewBraveSearch(&config.Brave, logger)
	case "mock":
		return NewMockSearch(), nil
	default:
		return nil, fmt.Errorf("unknown search provider: %s", config.Providers.Search)
	}
}
