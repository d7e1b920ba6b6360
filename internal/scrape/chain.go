package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Chain tries scrapers in priority order, returning the first result with
// any text.
type Chain struct {
	scrapers []Scraper
}

// NewChain creates a Chain. Scrapers are tried in the order given.
func NewChain(scrapers ...Scraper) *Chain {
	return &Chain{scrapers: scrapers}
}

// Name implements Scraper.
func (c *Chain) Name() string { return "chain" }

// Supports reports whether any scraper in the chain handles url.
func (c *Chain) Supports(url string) bool {
	for _, s := range c.scrapers {
		if s.Supports(url) {
			return true
		}
	}
	return false
}

// Scrape tries each supporting scraper for url until one returns text.
func (c *Chain) Scrape(ctx context.Context, url string) (*Result, error) {
	var lastErr error
	for _, s := range c.scrapers {
		if !s.Supports(url) {
			continue
		}
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "scrape: cancelled")
		}

		result, err := s.Scrape(ctx, url)
		if err == nil && result != nil && strings.TrimSpace(result.Page.Text) != "" {
			return result, nil
		}
		if err == nil {
			err = eris.Errorf("%s: no text extracted", s.Name())
		}
		zap.L().Warn("scrape: scraper failed, trying next",
			zap.String("scraper", s.Name()),
			zap.String("url", url),
			zap.Error(err),
		)
		lastErr = err
	}
	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "scrape: all scrapers failed")
	}
	return nil, eris.Errorf("scrape: no suitable scraper for url: %s", url)
}
