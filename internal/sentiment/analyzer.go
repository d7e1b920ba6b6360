// Package sentiment turns review text into structured sentiment analyses
// and strategic insights using Claude.
package sentiment

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pulse/internal/model"
	"github.com/sells-group/pulse/internal/resilience"
	"github.com/sells-group/pulse/pkg/anthropic"
)

// Defaults for the analyzer.
const (
	DefaultModel           = "claude-sonnet-4-20250514"
	DefaultMaxTokens       = 1024
	DefaultTextChars       = 10000
	DefaultContentChars    = 8000
	DefaultInsightMaxToken = 2000
)

// Analyzer produces a sentiment analysis for a body of text.
type Analyzer interface {
	// Analyze analyzes customer reviews about label.
	Analyze(ctx context.Context, text, label string) (*model.Analysis, error)
	// AnalyzeContent analyzes content scraped from a platform.
	AnalyzeContent(ctx context.Context, text, sourceType string) (*model.Analysis, error)
}

// Config tunes a ClaudeAnalyzer. Zero fields take the defaults above.
type Config struct {
	Model        string
	MaxTokens    int64
	TextChars    int
	ContentChars int
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.TextChars <= 0 {
		c.TextChars = DefaultTextChars
	}
	if c.ContentChars <= 0 {
		c.ContentChars = DefaultContentChars
	}
	return c
}

// ClaudeAnalyzer implements Analyzer with the Anthropic Messages API.
type ClaudeAnalyzer struct {
	client anthropic.Client
	cfg    Config
	retry  resilience.Policy
}

// NewClaudeAnalyzer creates a ClaudeAnalyzer.
func NewClaudeAnalyzer(client anthropic.Client, cfg Config) *ClaudeAnalyzer {
	return &ClaudeAnalyzer{
		client: client,
		cfg:    cfg.withDefaults(),
		retry:  claudePolicy("analyze"),
	}
}

// Analyze implements Analyzer.
func (a *ClaudeAnalyzer) Analyze(ctx context.Context, text, label string) (*model.Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, eris.New("sentiment: text is required")
	}
	prompt := reviewsPrompt(truncate(text, a.cfg.TextChars), label)
	return a.run(ctx, prompt, "analyze_text")
}

// AnalyzeContent implements Analyzer.
func (a *ClaudeAnalyzer) AnalyzeContent(ctx context.Context, text, sourceType string) (*model.Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, eris.New("sentiment: content is required")
	}
	prompt := contentPrompt(truncate(text, a.cfg.ContentChars), sourceType)
	return a.run(ctx, prompt, "analyze_content")
}

func (a *ClaudeAnalyzer) run(ctx context.Context, prompt, phase string) (*model.Analysis, error) {
	raw, err := complete(ctx, a.client, a.retry, anthropic.MessageRequest{
		Model:     a.cfg.Model,
		MaxTokens: a.cfg.MaxTokens,
		Messages:  anthropic.UserMessage(prompt),
	}, phase)
	if err != nil {
		return nil, err
	}

	var out model.Analysis
	if err := decodeObject(raw, &out); err != nil {
		return nil, err
	}
	out.OverallSentiment = model.NormalizeSentiment(string(out.OverallSentiment))
	return &out, nil
}

// complete sends req with retries and returns the reply text.
func complete(ctx context.Context, client anthropic.Client, p resilience.Policy, req anthropic.MessageRequest, phase string) (string, error) {
	resp, err := resilience.DoVal(ctx, p, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return client.CreateMessage(ctx, req)
	})
	if err != nil {
		return "", eris.Wrapf(err, "sentiment: %s", phase)
	}
	resp.Usage.LogCost(req.Model, phase)

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", eris.Errorf("sentiment: %s: empty model response", phase)
	}
	return text, nil
}

// claudePolicy retries rate limits, overloads and server errors.
func claudePolicy(op string) resilience.Policy {
	p := resilience.DefaultPolicy().Logged("anthropic", op)
	p.Retryable = func(err error) bool {
		if code := anthropic.StatusCode(err); code != 0 {
			return resilience.IsTransientHTTPStatus(code)
		}
		return resilience.IsTransient(err)
	}
	return p
}
