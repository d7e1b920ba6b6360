// Package store persists clients, competitors, sentiment analyses and
// generated insights.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pulse/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// Drivers accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// AnalysisFilter narrows ListAnalyses. Empty fields match everything.
type AnalysisFilter struct {
	ClientID     string `json:"client_id,omitempty"`
	CompetitorID string `json:"competitor_id,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

// Store defines the persistence interface for reputation tracking.
type Store interface {
	// Clients
	CreateClient(ctx context.Context, c *model.Client) error
	GetClient(ctx context.Context, id string) (*model.Client, error)
	ListClients(ctx context.Context) ([]model.Client, error)

	// Competitors
	CreateCompetitor(ctx context.Context, c *model.Competitor) error
	ListCompetitors(ctx context.Context, clientID string) ([]model.Competitor, error)
	DeleteCompetitor(ctx context.Context, id string) error

	// Analyses
	InsertAnalysis(ctx context.Context, rec *model.AnalysisRecord) error
	ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]model.AnalysisRecord, error)
	ImportAnalyses(ctx context.Context, recs []model.AnalysisRecord) (int64, error)

	// Insights
	SaveInsight(ctx context.Context, in *model.Insight) error
	LatestInsight(ctx context.Context, clientID string) (*model.Insight, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the store for driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch strings.ToLower(driver) {
	case DriverPostgres, "pgx", "":
		if dsn == "" {
			return nil, eris.New("store: database_url is required for postgres")
		}
		s, err := NewPostgres(ctx, dsn, nil)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverSQLite:
		if dsn == "" {
			dsn = "pulse.db"
		}
		s, err := NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
