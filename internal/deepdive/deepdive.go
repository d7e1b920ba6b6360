// Package deepdive runs per-group sentiment analyses over grouped review
// data and merges the results back onto the groups by name.
package deepdive

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/pulse/internal/locations"
	"github.com/sells-group/pulse/internal/model"
	"github.com/sells-group/pulse/internal/sentiment"
)

// ErrNoReviewText is the result error for a group without comment text.
const ErrNoReviewText = "No review text found"

// Defaults for Options.
const (
	DefaultConcurrency = 3
	DefaultInterval    = 2 * time.Second
)

// Result is the outcome of one group's deep dive. Exactly one of Analysis
// and Err is set.
type Result struct {
	Name        string          `json:"name"`
	ReviewCount int             `json:"review_count"`
	Analysis    *model.Analysis `json:"analysis,omitempty"`
	Err         string          `json:"error,omitempty"`
}

// OK reports whether the analysis succeeded.
func (r Result) OK() bool { return r.Err == "" && r.Analysis != nil }

// Sink persists successful deep dives.
type Sink interface {
	InsertAnalysis(ctx context.Context, rec *model.AnalysisRecord) error
}

// Options configures a Runner.
type Options struct {
	// Concurrency bounds in-flight analyzer calls.
	Concurrency int
	// Interval is the minimum spacing between analyzer calls. Zero disables pacing.
	Interval time.Duration
	// GroupBy names the grouping; persisted as source type "csv_<GroupBy>".
	GroupBy string
	// Sink, when set, stores each successful analysis.
	Sink Sink
	// OnResult is called as each group finishes. Calls are serialized, so the
	// callback needs no locking of its own.
	OnResult func(Result)
}

// DefaultOptions paces calls the way the upload page did: a few at a time,
// two seconds apart.
func DefaultOptions() Options {
	return Options{Concurrency: DefaultConcurrency, Interval: DefaultInterval}
}

// Runner issues independent analyzer calls for a set of groups.
type Runner struct {
	analyzer sentiment.Analyzer
	opts     Options
	limiter  *rate.Limiter
}

// NewRunner creates a Runner.
func NewRunner(analyzer sentiment.Analyzer, opts Options) *Runner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}
	return &Runner{
		analyzer: analyzer,
		opts:     opts,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Run analyzes each input. A failing group never affects the others; its
// error is recorded on its Result.
func (r *Runner) Run(ctx context.Context, inputs []locations.DeepDiveInput) Results {
	var (
		mu  sync.Mutex
		out = make(Results, len(inputs))
	)

	g := new(errgroup.Group)
	g.SetLimit(r.opts.Concurrency)

	for _, in := range inputs {
		g.Go(func() error {
			res := r.runOne(ctx, in)
			mu.Lock()
			defer mu.Unlock()
			out[in.Name] = res
			if r.opts.OnResult != nil {
				r.opts.OnResult(res)
			}
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Info("deepdive: complete",
		zap.Int("groups", len(inputs)),
		zap.Int("failed", out.Failed()),
	)
	return out
}

func (r *Runner) runOne(ctx context.Context, in locations.DeepDiveInput) Result {
	res := Result{Name: in.Name, ReviewCount: in.ReviewCount}
	if strings.TrimSpace(in.Text) == "" {
		res.Err = ErrNoReviewText
		return res
	}
	if err := r.limiter.Wait(ctx); err != nil {
		res.Err = err.Error()
		return res
	}

	a, err := r.analyzer.Analyze(ctx, in.Text, in.Name)
	if err != nil {
		zap.L().Warn("deepdive: analyze failed", zap.String("group", in.Name), zap.Error(err))
		res.Err = err.Error()
		return res
	}
	res.Analysis = a

	if r.opts.Sink != nil {
		rec := &model.AnalysisRecord{
			URL:        "csv_upload:" + in.Name,
			SourceType: SourceType(r.opts.GroupBy),
			RawText:    in.Text,
			Analysis:   *a,
		}
		if err := r.opts.Sink.InsertAnalysis(ctx, rec); err != nil {
			zap.L().Error("deepdive: persist failed", zap.String("group", in.Name), zap.Error(err))
		}
	}
	return res
}

// SourceType is the persisted source type for a grouping.
func SourceType(groupBy string) string {
	if groupBy == "" {
		return "csv_upload"
	}
	return "csv_" + strings.ToLower(strings.ReplaceAll(strings.TrimSpace(groupBy), " ", "_"))
}
