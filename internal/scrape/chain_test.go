package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockScraper implements Scraper for testing.
type mockScraper struct {
	name     string
	supports bool
	result   *Result
	err      error
	calls    int
}

func (m *mockScraper) Name() string           { return m.name }
func (m *mockScraper) Supports(_ string) bool { return m.supports }
func (m *mockScraper) Scrape(_ context.Context, _ string) (*Result, error) {
	m.calls++
	return m.result, m.err
}

func textResult(source, text string) *Result {
	return &Result{Page: Page{URL: "https://www.g2.com/products/acme/reviews", Text: text}, Source: source}
}

func TestChain_Scrape_FirstSuccess(t *testing.T) {
	s1 := &mockScraper{name: "primary", supports: true, result: textResult("primary", "great support")}
	s2 := &mockScraper{name: "fallback", supports: true}

	result, err := NewChain(s1, s2).Scrape(context.Background(), "https://www.g2.com/products/acme/reviews")
	require.NoError(t, err)
	assert.Equal(t, "primary", result.Source)
	assert.Equal(t, 0, s2.calls)
}

func TestChain_Scrape_FallbackOnError(t *testing.T) {
	s1 := &mockScraper{name: "primary", supports: true, err: errors.New("failed")}
	s2 := &mockScraper{name: "fallback", supports: true, result: textResult("fallback", "slow billing")}

	result, err := NewChain(s1, s2).Scrape(context.Background(), "https://acme.com")
	require.NoError(t, err)
	assert.Equal(t, "fallback", result.Source)
}

func TestChain_Scrape_FallbackOnEmptyText(t *testing.T) {
	s1 := &mockScraper{name: "primary", supports: true, result: textResult("primary", "  \n ")}
	s2 := &mockScraper{name: "fallback", supports: true, result: textResult("fallback", "content")}

	result, err := NewChain(s1, s2).Scrape(context.Background(), "https://acme.com")
	require.NoError(t, err)
	assert.Equal(t, "fallback", result.Source)
}

func TestChain_Scrape_SkipsUnsupported(t *testing.T) {
	s1 := &mockScraper{name: "reddit", supports: false}
	s2 := &mockScraper{name: "firecrawl", supports: true, result: textResult("firecrawl", "content")}

	result, err := NewChain(s1, s2).Scrape(context.Background(), "https://acme.com")
	require.NoError(t, err)
	assert.Equal(t, "firecrawl", result.Source)
	assert.Equal(t, 0, s1.calls)
}

func TestChain_Scrape_AllFail(t *testing.T) {
	s1 := &mockScraper{name: "s1", supports: true, err: errors.New("s1 error")}
	s2 := &mockScraper{name: "s2", supports: true, err: errors.New("s2 error")}

	result, err := NewChain(s1, s2).Scrape(context.Background(), "https://acme.com")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "all scrapers failed")
	assert.Contains(t, err.Error(), "s2 error")
}

func TestChain_Scrape_NoSupportingScraper(t *testing.T) {
	s1 := &mockScraper{name: "s1", supports: false}

	chain := NewChain(s1)
	assert.False(t, chain.Supports("https://acme.com"))
	_, err := chain.Scrape(context.Background(), "https://acme.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no suitable scraper")
}

func TestChain_Scrape_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s1 := &mockScraper{name: "s1", supports: true, result: textResult("s1", "content")}
	_, err := NewChain(s1).Scrape(ctx, "https://acme.com")
	require.Error(t, err)
	assert.Equal(t, 0, s1.calls)
}
