package scrape

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pulse/internal/resilience"
	"github.com/sells-group/pulse/pkg/firecrawl"
)

// FirecrawlAdapter wraps a Firecrawl client as a Scraper. It accepts any
// URL and is normally last in the chain.
type FirecrawlAdapter struct {
	client firecrawl.Client
	retry  resilience.Policy
}

// NewFirecrawlAdapter creates a FirecrawlAdapter from a Firecrawl client.
func NewFirecrawlAdapter(client firecrawl.Client) *FirecrawlAdapter {
	return &FirecrawlAdapter{
		client: client,
		retry:  resilience.DefaultPolicy().Logged("firecrawl", "scrape"),
	}
}

// Name implements Scraper.
func (f *FirecrawlAdapter) Name() string { return "firecrawl" }

// Supports implements Scraper.
func (f *FirecrawlAdapter) Supports(_ string) bool { return true }

// Scrape fetches the main content of url as markdown.
func (f *FirecrawlAdapter) Scrape(ctx context.Context, url string) (*Result, error) {
	resp, err := resilience.DoVal(ctx, f.retry, func(ctx context.Context) (*firecrawl.ScrapeResponse, error) {
		resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
			URL:             url,
			Formats:         []string{"markdown"},
			OnlyMainContent: true,
		})
		var apiErr *firecrawl.APIError
		if errors.As(err, &apiErr) && resilience.IsTransientHTTPStatus(apiErr.StatusCode) {
			return nil, resilience.NewTransientError(err, apiErr.StatusCode)
		}
		return resp, err
	})
	if err != nil {
		return nil, eris.Wrap(err, "firecrawl: scrape")
	}

	pageURL := resp.Data.Metadata.SourceURL
	if pageURL == "" {
		pageURL = url
	}
	return &Result{
		Page: Page{
			URL:        pageURL,
			Title:      resp.Data.Metadata.Title,
			Text:       resp.Data.Markdown,
			StatusCode: resp.Data.Metadata.StatusCode,
		},
		Source: f.Name(),
	}, nil
}
