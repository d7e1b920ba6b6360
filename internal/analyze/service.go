// Package analyze scrapes review pages, analyzes them and stores the
// results.
package analyze

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/pulse/internal/model"
	"github.com/sells-group/pulse/internal/scrape"
	"github.com/sells-group/pulse/internal/sentiment"
)

// Defaults for Options.
const (
	DefaultMinContentChars = 100
	DefaultBatchDelay      = 2 * time.Second
	DefaultProject         = "default"
)

// Recorder persists analyses.
type Recorder interface {
	InsertAnalysis(ctx context.Context, rec *model.AnalysisRecord) error
}

// Request identifies one URL to analyze and who it belongs to.
type Request struct {
	URL          string `json:"url"`
	ProjectName  string `json:"project_name,omitempty"`
	ClientID     string `json:"client_id,omitempty"`
	CompetitorID string `json:"competitor_id,omitempty"`
}

// BatchRequest is a set of URLs sharing ownership.
type BatchRequest struct {
	URLs         []string `json:"urls"`
	ProjectName  string   `json:"project_name,omitempty"`
	ClientID     string   `json:"client_id,omitempty"`
	CompetitorID string   `json:"competitor_id,omitempty"`
}

// BatchResult is the outcome for one URL of a batch.
type BatchResult struct {
	URL    string                `json:"url"`
	Record *model.AnalysisRecord `json:"result,omitempty"`
	Err    string                `json:"error,omitempty"`
}

// Options configures a Service.
type Options struct {
	MinContentChars int
	BatchDelay      time.Duration
}

// Service runs scrape, analyze and persist for URLs and free text.
type Service struct {
	scraper  scrape.Scraper
	analyzer sentiment.Analyzer
	recorder Recorder
	opts     Options
}

// NewService creates a Service. recorder may be nil to skip persistence.
func NewService(scraper scrape.Scraper, analyzer sentiment.Analyzer, recorder Recorder, opts Options) *Service {
	if opts.MinContentChars <= 0 {
		opts.MinContentChars = DefaultMinContentChars
	}
	if opts.BatchDelay < 0 {
		opts.BatchDelay = 0
	}
	return &Service{scraper: scraper, analyzer: analyzer, recorder: recorder, opts: opts}
}

// AnalyzeURL scrapes req.URL, analyzes the content and stores the result.
// Content shorter than the configured minimum fails with
// scrape.ErrInsufficientContent.
func (s *Service) AnalyzeURL(ctx context.Context, req Request) (*model.AnalysisRecord, error) {
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return nil, eris.New("analyze: URL is required")
	}
	sourceType := scrape.DetectSource(url)

	res, err := s.scraper.Scrape(ctx, url)
	if err != nil {
		return nil, eris.Wrapf(err, "analyze: scrape %s", url)
	}
	text := res.Page.Text
	if len([]rune(strings.TrimSpace(text))) < s.opts.MinContentChars {
		return nil, eris.Wrapf(scrape.ErrInsufficientContent, "analyze: %s", url)
	}

	a, err := s.analyzer.AnalyzeContent(ctx, text, sourceType)
	if err != nil {
		return nil, eris.Wrapf(err, "analyze: %s", url)
	}

	rec := &model.AnalysisRecord{
		URL:          url,
		SourceType:   sourceType,
		ProjectName:  orDefault(req.ProjectName, DefaultProject),
		ClientID:     req.ClientID,
		CompetitorID: req.CompetitorID,
		RawText:      text,
		Analysis:     *a,
	}
	if s.recorder != nil {
		if err := s.recorder.InsertAnalysis(ctx, rec); err != nil {
			return nil, eris.Wrap(err, "analyze: save analysis")
		}
	}

	zap.L().Info("analyze: url complete",
		zap.String("url", url),
		zap.String("source_type", sourceType),
		zap.String("scraper", res.Source),
		zap.String("sentiment", string(a.OverallSentiment)),
	)
	return rec, nil
}

// AnalyzeURLs analyzes each URL in turn, pacing scrapes by the batch delay.
// A failing URL is reported in its result and never stops the batch.
func (s *Service) AnalyzeURLs(ctx context.Context, req BatchRequest) []BatchResult {
	limit := rate.Inf
	if s.opts.BatchDelay > 0 {
		limit = rate.Every(s.opts.BatchDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	out := make([]BatchResult, 0, len(req.URLs))
	for _, url := range req.URLs {
		if err := limiter.Wait(ctx); err != nil {
			out = append(out, BatchResult{URL: url, Err: err.Error()})
			continue
		}
		rec, err := s.AnalyzeURL(ctx, Request{
			URL:          url,
			ProjectName:  req.ProjectName,
			ClientID:     req.ClientID,
			CompetitorID: req.CompetitorID,
		})
		if err != nil {
			zap.L().Warn("analyze: batch url failed", zap.String("url", url), zap.Error(err))
			out = append(out, BatchResult{URL: url, Err: userMessage(err)})
			continue
		}
		out = append(out, BatchResult{URL: url, Record: rec})
	}
	return out
}

// TextRequest is free review text to analyze under a label.
type TextRequest struct {
	Text        string `json:"text"`
	Label       string `json:"label"`
	Source      string `json:"source,omitempty"`
	ReviewCount int    `json:"reviewCount,omitempty"`
}

// AnalyzeText analyzes free text. Persistence failures are logged and do
// not fail the call.
func (s *Service) AnalyzeText(ctx context.Context, req TextRequest) (*model.AnalysisRecord, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, eris.New("analyze: Text is required")
	}
	a, err := s.analyzer.Analyze(ctx, req.Text, req.Label)
	if err != nil {
		return nil, eris.Wrapf(err, "analyze: text %q", req.Label)
	}

	rec := &model.AnalysisRecord{
		URL:        "csv_upload:" + req.Label,
		SourceType: orDefault(req.Source, "csv_upload"),
		RawText:    req.Text,
		Analysis:   *a,
	}
	if s.recorder != nil {
		if err := s.recorder.InsertAnalysis(ctx, rec); err != nil {
			zap.L().Error("analyze: save text analysis", zap.String("label", req.Label), zap.Error(err))
		}
	}
	return rec, nil
}

// userMessage is the innermost error message, without wrap context.
func userMessage(err error) string {
	if eris.Is(err, scrape.ErrInsufficientContent) {
		return scrape.ErrInsufficientContent.Error()
	}
	if cause := eris.Cause(err); cause != nil {
		return cause.Error()
	}
	return err.Error()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
