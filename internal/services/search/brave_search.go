// -----------------------------------------------------------------------
// Brave Search - Web search via the Brave Search REST API
// -----------------------------------------------------------------------

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/common"
	"github.com/ternarybob/suadeo/internal/interfaces"
	"github.com/ternarybob/suadeo/internal/models"
	"golang.org/x/time/rate"
)

const braveSearchEndpoint = "https://api.search.brave.com/res/v1/web/search"

// BraveSearch implements SearchCapability over the Brave Search REST API.
// Requests are rate limited per the configured interval; free-tier keys
// allow one request per second.
type BraveSearch struct {
	config  *common.BraveConfig
	logger  arbor.ILogger
	client  *http.Client
	limiter *rate.Limiter
}

// braveResponse mirrors the subset of the Brave web search payload we use.
type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// NewBraveSearch creates the Brave search capability.
func NewBraveSearch(config *common.BraveConfig, logger arbor.ILogger) (*BraveSearch, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Brave API key is required (set via BRAVE_API_KEY or brave.api_key in config)")
	}

	interval := time.Second
	if d, err := time.ParseDuration(config.RateLimit); err == nil && d > 0 {
		interval = d
	}

	timeout := 15 * time.Second
	if d, err := time.ParseDuration(config.Timeout); err == nil && d > 0 {
		timeout = d
	}

	logger.Debug().
		Dur("rate_interval", interval).
		Dur("timeout", timeout).
		Msg("Brave search capability initialized")

	return &BraveSearch{
		config:  config,
		logger:  logger,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}, nil
}

var _ interfaces.SearchCapability = (*BraveSearch)(nil)

// Search runs one query and returns up to maxResults hits.
func (b *BraveSearch) Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	reqURL := fmt.Sprintf("%s?q=%s&count=%s",
		braveSearchEndpoint, url.QueryEscape(query), strconv.Itoa(maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build Brave request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.config.APIKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Brave search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// 4xx other than rate limiting means the request itself is bad;
		// retrying the same call cannot succeed.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: Brave search returned status %d", interfaces.ErrPermanent, resp.StatusCode)
		}
		return nil, fmt.Errorf("Brave search returned status %d", resp.StatusCode)
	}

	var payload braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode Brave response: %w", err)
	}

	results := make([]models.SearchResult, 0, len(payload.Web.Results))
	for _, r := range payload.Web.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, models.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Description,
		})
		if len(results) >= maxResults {
			break
		}
	}

	b.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Msg("Brave search completed")

	return results, nil
}

// Provider returns the provider id recorded on jobs.
func (b *BraveSearch) Provider() string {
	return "brave"
}
