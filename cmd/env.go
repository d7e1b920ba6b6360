package main

import (
	"context"
	"maps"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pulse/internal/analyze"
	"github.com/sells-group/pulse/internal/deepdive"
	"github.com/sells-group/pulse/internal/locations"
	"github.com/sells-group/pulse/internal/scrape"
	"github.com/sells-group/pulse/internal/sentiment"
	"github.com/sells-group/pulse/internal/store"
	anthropicpkg "github.com/sells-group/pulse/pkg/anthropic"
	"github.com/sells-group/pulse/pkg/apify"
	"github.com/sells-group/pulse/pkg/firecrawl"
)

// appEnv holds the initialized store and clients needed by the serve,
// analyze and summarize commands.
type appEnv struct {
	Store    store.Store
	Analyzer *sentiment.ClaudeAnalyzer
	Insights *sentiment.InsightGenerator
	Service  *analyze.Service
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv validates config for mode, opens and migrates the store, and
// builds the Claude clients and scraper chain. Callers should defer
// env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	var claudeOpts []anthropicpkg.Option
	if cfg.Anthropic.BaseURL != "" {
		claudeOpts = append(claudeOpts, anthropicpkg.WithBaseURL(cfg.Anthropic.BaseURL))
	}
	claude := anthropicpkg.NewClient(cfg.Anthropic.Key, claudeOpts...)

	analyzer := sentiment.NewClaudeAnalyzer(claude, sentiment.Config{
		Model:        cfg.Anthropic.Model,
		MaxTokens:    cfg.Anthropic.MaxTokens,
		TextChars:    cfg.DeepDive.MaxTextChars,
		ContentChars: cfg.Scrape.MaxTextChars,
	})

	return &appEnv{
		Store:    st,
		Analyzer: analyzer,
		Insights: sentiment.NewInsightGenerator(claude, cfg.Anthropic.Model, cfg.Anthropic.InsightsMaxTokens),
		Service: analyze.NewService(buildScraper(), analyzer, st, analyze.Options{
			MinContentChars: cfg.Scrape.MinContentChars,
			BatchDelay:      cfg.Scrape.BatchDelay(),
		}),
	}, nil
}

// initStore opens and migrates the configured store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// buildScraper assembles the fallback chain: Reddit JSON for Reddit
// threads, Apify for platforms that need a browser (when keyed), then
// Firecrawl (when keyed), then a plain HTTP fetch.
func buildScraper() *scrape.Chain {
	redditTimeout := time.Duration(cfg.Reddit.TimeoutSecs) * time.Second
	scrapers := []scrape.Scraper{
		scrape.NewRedditScraper(&http.Client{Timeout: redditTimeout}).WithUserAgent(cfg.Reddit.UserAgent),
	}

	if cfg.Apify.Key != "" {
		actors := maps.Clone(scrape.DefaultApifyActors)
		maps.Copy(actors, cfg.Apify.Actors)
		client := apify.NewClient(cfg.Apify.Key, apify.WithBaseURL(cfg.Apify.BaseURL))
		scrapers = append(scrapers, scrape.NewApifyScraper(client,
			scrape.WithActors(actors),
			scrape.WithMaxReviews(cfg.Apify.MaxReviews),
			scrape.WithPollOptions(
				apify.WithPollInterval(cfg.Apify.PollInterval()),
				apify.WithMaxAttempts(cfg.Apify.PollAttempts),
			),
		))
		zap.L().Info("apify scraping enabled")
	} else {
		zap.L().Debug("PULSE_APIFY_KEY not set, apify scraping disabled")
	}

	if cfg.Firecrawl.Key != "" {
		client := firecrawl.NewClient(cfg.Firecrawl.Key, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))
		scrapers = append(scrapers, scrape.NewFirecrawlAdapter(client))
	} else {
		zap.L().Debug("PULSE_FIRECRAWL_KEY not set, firecrawl scraping disabled")
	}

	scrapers = append(scrapers, scrape.NewLocalScraper())
	return scrape.NewChain(scrapers...)
}

// loadRules builds location rules from config. A configured rules file
// replaces them; fields it omits keep the built-in defaults.
func loadRules() (locations.Rules, error) {
	rules := locations.DefaultRules()
	rules.PreviewLimit = cfg.Locations.PreviewLimit
	rules.Noise = locations.NoiseFilter{
		MinIDDigits: cfg.Locations.Noise.MinIDDigits,
		Substrings:  cfg.Locations.Noise.Substrings,
	}
	if cfg.Locations.RulesFile == "" {
		return rules, nil
	}

	fromFile, err := locations.LoadRules(cfg.Locations.RulesFile)
	if err != nil {
		return locations.Rules{}, err
	}
	return fromFile, nil
}

// deepDiveOptions returns runner options from config.
func deepDiveOptions(groupBy string, sink deepdive.Sink) deepdive.Options {
	return deepdive.Options{
		Concurrency: cfg.DeepDive.Concurrency,
		Interval:    cfg.DeepDive.Interval(),
		GroupBy:     groupBy,
		Sink:        sink,
	}
}
