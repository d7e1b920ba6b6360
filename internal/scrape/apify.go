package scrape

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pulse/pkg/apify"
)

// DefaultApifyActors maps review platforms to the actors that scrape them.
var DefaultApifyActors = map[string]string{
	SourceYelp:         "yelp/yelp-scraper",
	SourceHealthgrades: "apify/web-scraper",
	SourceGoogle:       "compass/google-maps-reviews-scraper",
}

const (
	defaultMaxReviews = 50
	reviewSeparator   = "\n\n---\n\n"
)

// ApifyScraper runs a platform-specific Apify actor and flattens the
// reviews it returns.
type ApifyScraper struct {
	client     apify.Client
	actors     map[string]string
	maxReviews int
	pollOpts   []apify.PollOption
}

// ApifyOption configures an ApifyScraper.
type ApifyOption func(*ApifyScraper)

// WithActors replaces the platform to actor map.
func WithActors(actors map[string]string) ApifyOption {
	return func(a *ApifyScraper) { a.actors = actors }
}

// WithMaxReviews sets the maxReviews actor input.
func WithMaxReviews(n int) ApifyOption {
	return func(a *ApifyScraper) {
		if n > 0 {
			a.maxReviews = n
		}
	}
}

// WithPollOptions sets how run completion is polled.
func WithPollOptions(opts ...apify.PollOption) ApifyOption {
	return func(a *ApifyScraper) { a.pollOpts = opts }
}

// NewApifyScraper creates an ApifyScraper.
func NewApifyScraper(client apify.Client, opts ...ApifyOption) *ApifyScraper {
	a := &ApifyScraper{
		client:     client,
		actors:     DefaultApifyActors,
		maxReviews: defaultMaxReviews,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name implements Scraper.
func (a *ApifyScraper) Name() string { return "apify" }

// Supports reports whether an actor is configured for url's platform.
func (a *ApifyScraper) Supports(url string) bool {
	_, ok := a.actors[DetectSource(url)]
	return ok
}

type apifyStartURL struct {
	URL string `json:"url"`
}

type apifyInput struct {
	StartURLs  []apifyStartURL `json:"startUrls"`
	MaxReviews int             `json:"maxReviews"`
}

// Scrape starts the actor for url, waits for it, and flattens its dataset.
func (a *ApifyScraper) Scrape(ctx context.Context, url string) (*Result, error) {
	actor, ok := a.actors[DetectSource(url)]
	if !ok {
		return nil, eris.Errorf("apify: no actor for %s", url)
	}

	run, err := a.client.StartRun(ctx, actor, apifyInput{
		StartURLs:  []apifyStartURL{{URL: url}},
		MaxReviews: a.maxReviews,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "apify: start %s", actor)
	}

	run, err = apify.PollRun(ctx, a.client, actor, run.ID, a.pollOpts...)
	if err != nil {
		return nil, eris.Wrapf(err, "apify: wait for %s", actor)
	}
	if run.Status != apify.StatusSucceeded {
		return nil, eris.Errorf("apify: run %s ended with status %s", run.ID, run.Status)
	}

	items, err := a.client.DatasetItems(ctx, actor, run.ID)
	if err != nil {
		return nil, eris.Wrapf(err, "apify: dataset for run %s", run.ID)
	}
	return &Result{
		Page:   Page{URL: url, Text: FlattenReviews(items)},
		Source: a.Name(),
	}, nil
}

// FlattenReviews renders actor items as "Rating: r/5" blocks.
func FlattenReviews(items []apify.Item) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		text := it.String("text", "review", "body")
		if strings.TrimSpace(text) == "" {
			continue
		}
		rating := it.String("rating", "stars")
		if rating == "" {
			rating = "?"
		}
		parts = append(parts, fmt.Sprintf("Rating: %s/5\n%s", rating, text))
	}
	return strings.Join(parts, reviewSeparator)
}
