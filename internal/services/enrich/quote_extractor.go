// -----------------------------------------------------------------------
// Quote Extractor - Pulls a usable quote from a source page
// -----------------------------------------------------------------------

package enrich

import (
	"context"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/suadeo/internal/interfaces"
)

const (
	fetchTimeout = 10 * time.Second
	maxQuoteLen  = 400
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// QuoteExtractor fetches a source page and extracts a short quote from its
// main content. Used when a search result arrives without a snippet.
// Every failure path returns "" so the caller falls back to the snippet.
type QuoteExtractor struct {
	logger arbor.ILogger
	client *http.Client
}

// NewQuoteExtractor creates the enrichment service.
func NewQuoteExtractor(logger arbor.ILogger) *QuoteExtractor {
	return &QuoteExtractor{
		logger: logger,
		client: &http.Client{Timeout: fetchTimeout},
	}
}

var _ interfaces.QuoteEnricher = (*QuoteExtractor)(nil)

// ExtractQuote fetches the page and returns its opening main-content text,
// flattened to plain markdown and truncated to a quote-sized excerpt.
func (q *QuoteExtractor) ExtractQuote(ctx context.Context, pageURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := q.client.Do(req)
	if err != nil {
		q.logger.Debug().Err(err).Str("url", pageURL).Msg("Quote enrichment fetch failed")
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "text/html") {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}

	// Strip chrome before extracting content
	doc.Find("script, style, nav, header, footer, aside, form").Remove()

	content := doc.Find("main, article").First()
	if content.Length() == 0 {
		content = doc.Find("body").First()
	}
	if content.Length() == 0 {
		return ""
	}

	html, err := content.Html()
	if err != nil {
		return ""
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return ""
	}

	return firstExcerpt(markdown)
}

// firstExcerpt returns the first substantial paragraph, trimmed to
// maxQuoteLen at a word boundary.
func firstExcerpt(markdown string) string {
	for _, para := range strings.Split(markdown, "\n\n") {
		text := strings.TrimSpace(para)
		// Skip headings, images and link-only lines
		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, "![") {
			continue
		}
		text = strings.Join(strings.Fields(text), " ")
		if len(text) < 40 {
			continue
		}
		if len(text) > maxQuoteLen {
			cut := strings.LastIndex(text[:maxQuoteLen], " ")
			if cut <= 0 {
				cut = maxQuoteLen
			}
			text = text[:cut] + "..."
		}
		return text
	}
	return ""
}
