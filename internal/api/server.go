// Package api exposes reputation tracking over HTTP: URL and text analysis,
// clients and competitors, dashboards, insights and review file uploads.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/pulse/internal/analyze"
	"github.com/sells-group/pulse/internal/deepdive"
	"github.com/sells-group/pulse/internal/locations"
	"github.com/sells-group/pulse/internal/model"
	"github.com/sells-group/pulse/internal/sentiment"
	"github.com/sells-group/pulse/internal/store"
)

// DefaultMaxUploadBytes caps uploaded review files.
const DefaultMaxUploadBytes = 32 << 20

// URLAnalyzer runs the scrape and analyze flow.
type URLAnalyzer interface {
	AnalyzeURL(ctx context.Context, req analyze.Request) (*model.AnalysisRecord, error)
	AnalyzeURLs(ctx context.Context, req analyze.BatchRequest) []analyze.BatchResult
	AnalyzeText(ctx context.Context, req analyze.TextRequest) (*model.AnalysisRecord, error)
}

// InsightGenerator produces strategic insights for a client.
type InsightGenerator interface {
	Generate(ctx context.Context, clientID, clientName string, records []model.AnalysisRecord) (*model.Insight, error)
}

// Deps are the collaborators behind the handlers.
type Deps struct {
	Store    store.Store
	Analyze  URLAnalyzer
	Analyzer sentiment.Analyzer
	Insights InsightGenerator
}

// Options configures a Server.
type Options struct {
	AllowedOrigins []string
	Rules          *locations.Rules
	DeepDive       deepdive.Options
	MaxUploadBytes int64
}

// Server holds the HTTP handlers.
type Server struct {
	deps  Deps
	opts  Options
	rules locations.Rules
}

// New creates a Server. Zero-valued options fall back to defaults; nil
// Rules means locations.DefaultRules.
func New(deps Deps, opts Options) *Server {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	rules := locations.DefaultRules()
	if opts.Rules != nil {
		rules = *opts.Rules
	}
	if opts.DeepDive.Concurrency <= 0 {
		opts.DeepDive.Concurrency = deepdive.DefaultConcurrency
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Server{deps: deps, opts: opts, rules: rules}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.analyzeURL)
		r.Put("/analyze", s.analyzeURLs)
		r.Post("/analyze-text", s.analyzeText)

		r.Get("/clients", s.listClients)
		r.Post("/clients", s.createClient)
		r.Get("/clients/{id}", s.getClient)
		r.Get("/clients/{id}/competitors", s.listCompetitors)
		r.Post("/clients/{id}/competitors", s.createCompetitor)
		r.Delete("/competitors/{id}", s.deleteCompetitor)

		r.Get("/analyses", s.listAnalyses)
		r.Get("/dashboard", s.dashboard)
		r.Get("/insights", s.latestInsight)
		r.Post("/insights", s.generateInsight)

		r.Post("/upload", s.upload)
		r.Post("/deep-dive", s.deepDive)
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs each request once it completes.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
