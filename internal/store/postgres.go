package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pulse/internal/db"
	"github.com/sells-group/pulse/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	now     func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, now: time.Now}, nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close, now: time.Now}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS clients (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	location   TEXT NOT NULL DEFAULT '',
	industry   TEXT NOT NULL DEFAULT '',
	notes      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS competitors (
	id         TEXT PRIMARY KEY,
	client_id  TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	location   TEXT NOT NULL DEFAULT '',
	notes      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS analyses (
	id                  TEXT PRIMARY KEY,
	url                 TEXT NOT NULL,
	source_type         TEXT NOT NULL DEFAULT 'other',
	project_name        TEXT NOT NULL DEFAULT 'default',
	client_id           TEXT REFERENCES clients(id) ON DELETE SET NULL,
	competitor_id       TEXT REFERENCES competitors(id) ON DELETE CASCADE,
	overall_sentiment   TEXT NOT NULL DEFAULT '',
	sentiment_score     DOUBLE PRECISION,
	confidence          TEXT NOT NULL DEFAULT '',
	themes              TEXT NOT NULL DEFAULT '[]',
	sentiment_per_theme TEXT NOT NULL DEFAULT '{}',
	pain_points         TEXT NOT NULL DEFAULT '[]',
	praise_points       TEXT NOT NULL DEFAULT '[]',
	competitor_mentions TEXT NOT NULL DEFAULT '[]',
	feature_requests    TEXT NOT NULL DEFAULT '[]',
	key_quote           TEXT NOT NULL DEFAULT '',
	summary             TEXT NOT NULL DEFAULT '',
	raw_text            TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS insights (
	id              TEXT PRIMARY KEY,
	client_id       TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
	summary         TEXT NOT NULL DEFAULT '',
	recommendations TEXT NOT NULL DEFAULT '[]',
	patient_prompts TEXT NOT NULL DEFAULT '[]',
	generated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_competitors_client_id ON competitors(client_id);
CREATE INDEX IF NOT EXISTS idx_analyses_client_id ON analyses(client_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_analyses_competitor_id ON analyses(competitor_id);
CREATE INDEX IF NOT EXISTS idx_insights_client_generated ON insights(client_id, generated_at DESC);
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *PostgresStore) CreateClient(ctx context.Context, c *model.Client) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = s.clock().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO clients (id, name, location, industry, notes, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Name, c.Location, c.Industry, c.Notes, c.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert client")
}

func (s *PostgresStore) GetClient(ctx context.Context, id string) (*model.Client, error) {
	var c model.Client
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, location, industry, notes, created_at FROM clients WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Location, &c.Industry, &c.Notes, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: client %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get client %s", id)
	}
	return &c, nil
}

func (s *PostgresStore) ListClients(ctx context.Context) ([]model.Client, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, location, industry, notes, created_at FROM clients ORDER BY created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list clients")
	}
	defer rows.Close()

	out := []model.Client{}
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Location, &c.Industry, &c.Notes, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan client")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate clients")
}

func (s *PostgresStore) CreateCompetitor(ctx context.Context, c *model.Competitor) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = s.clock().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO competitors (id, client_id, name, location, notes, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.ClientID, c.Name, c.Location, c.Notes, c.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert competitor")
}

func (s *PostgresStore) ListCompetitors(ctx context.Context, clientID string) ([]model.Competitor, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, client_id, name, location, notes, created_at FROM competitors WHERE client_id = $1 ORDER BY created_at ASC`,
		clientID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list competitors")
	}
	defer rows.Close()

	out := []model.Competitor{}
	for rows.Next() {
		var c model.Competitor
		if err := rows.Scan(&c.ID, &c.ClientID, &c.Name, &c.Location, &c.Notes, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan competitor")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate competitors")
}

// DeleteCompetitor removes a competitor and its analyses.
func (s *PostgresStore) DeleteCompetitor(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin delete competitor")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM analyses WHERE competitor_id = $1`, id); err != nil {
		return eris.Wrapf(err, "postgres: delete analyses of competitor %s", id)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM competitors WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete competitor %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: competitor %s", id)
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit delete competitor")
}

func (s *PostgresStore) InsertAnalysis(ctx context.Context, rec *model.AnalysisRecord) error {
	prepareAnalysis(rec, s.clock())
	_, err := s.pool.Exec(ctx,
		`INSERT INTO analyses (`+joinColumns()+`) VALUES (`+pgPlaceholders(len(analysisColumns))+`)`,
		analysisArgs(rec)...,
	)
	return eris.Wrap(err, "postgres: insert analysis")
}

// ListAnalyses returns matching analyses, newest first.
func (s *PostgresStore) ListAnalyses(ctx context.Context, f AnalysisFilter) ([]model.AnalysisRecord, error) {
	where, args := analysisWhere(f, func(i int) string { return "$" + strconv.Itoa(i) })
	query := analysisSelect + where + " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list analyses")
	}
	defer rows.Close()

	out := []model.AnalysisRecord{}
	for rows.Next() {
		r, err := scanAnalysis(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan analysis")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate analyses")
}

// ImportAnalyses bulk-loads records. Records that arrive with an id are
// upserted so re-importing an export is idempotent; the rest are copied in
// with fresh ids.
func (s *PostgresStore) ImportAnalyses(ctx context.Context, recs []model.AnalysisRecord) (int64, error) {
	now := s.clock()
	var keyed, fresh [][]any
	for i := range recs {
		hadID := recs[i].ID != ""
		prepareAnalysis(&recs[i], now)
		if hadID {
			keyed = append(keyed, analysisArgs(&recs[i]))
		} else {
			fresh = append(fresh, analysisArgs(&recs[i]))
		}
	}

	upserted, err := db.MergeRows(ctx, s.pool, db.Merge{
		Table:   "analyses",
		Columns: analysisColumns,
		Key:     []string{"id"},
		// Exports carry no raw text; a re-import must not blank it.
		Keep: []string{"raw_text", "created_at"},
	}, keyed)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: import analyses")
	}
	copied, err := db.CopyFrom(ctx, s.pool, "analyses", analysisColumns, fresh)
	if err != nil {
		return upserted, eris.Wrap(err, "postgres: import analyses")
	}
	return upserted + copied, nil
}

func (s *PostgresStore) SaveInsight(ctx context.Context, in *model.Insight) error {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.GeneratedAt.IsZero() {
		in.GeneratedAt = s.clock().UTC()
	}
	recs, prompts, err := insightArgs(in)
	if err != nil {
		return eris.Wrap(err, "postgres: save insight")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO insights (id, client_id, summary, recommendations, patient_prompts, generated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		in.ID, in.ClientID, in.Summary, recs, prompts, in.GeneratedAt,
	)
	return eris.Wrap(err, "postgres: insert insight")
}

// LatestInsight returns the most recent insight for clientID, or nil when
// none has been generated.
func (s *PostgresStore) LatestInsight(ctx context.Context, clientID string) (*model.Insight, error) {
	in, err := scanInsight(s.pool.QueryRow(ctx,
		`SELECT id, client_id, summary, recommendations, patient_prompts, generated_at
		 FROM insights WHERE client_id = $1 ORDER BY generated_at DESC LIMIT 1`,
		clientID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest insight")
	}
	return in, nil
}

func joinColumns() string {
	return strings.Join(analysisColumns, ", ")
}

func pgPlaceholders(n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = "$" + strconv.Itoa(i+1)
	}
	return strings.Join(ph, ", ")
}
