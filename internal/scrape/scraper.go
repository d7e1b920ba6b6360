// Package scrape fetches review content from web sources, choosing the
// cheapest scraper that supports each URL and falling back on failure.
package scrape

import (
	"context"
	"errors"
)

// ErrInsufficientContent means a page yielded too little text to analyze.
var ErrInsufficientContent = errors.New("not enough content extracted from URL")

// Page is the text content of one scraped URL.
type Page struct {
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	Text       string `json:"text"`
	StatusCode int    `json:"status_code,omitempty"`
}

// Result holds a scraped page with the scraper that produced it.
type Result struct {
	Page   Page
	Source string // e.g. "reddit", "apify", "firecrawl"
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}
