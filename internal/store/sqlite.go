package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/pulse/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It suits local
// runs and tests.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// A single connection keeps ":memory:" databases shared across calls.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS clients (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	location   TEXT NOT NULL DEFAULT '',
	industry   TEXT NOT NULL DEFAULT '',
	notes      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS competitors (
	id         TEXT PRIMARY KEY,
	client_id  TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	location   TEXT NOT NULL DEFAULT '',
	notes      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS analyses (
	id                  TEXT PRIMARY KEY,
	url                 TEXT NOT NULL,
	source_type         TEXT NOT NULL DEFAULT 'other',
	project_name        TEXT NOT NULL DEFAULT 'default',
	client_id           TEXT,
	competitor_id       TEXT,
	overall_sentiment   TEXT NOT NULL DEFAULT '',
	sentiment_score     REAL,
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
	created_at          DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS insights (
	id              TEXT PRIMARY KEY,
	client_id       TEXT NOT NULL,
	summary         TEXT NOT NULL DEFAULT '',
	recommendations TEXT NOT NULL DEFAULT '[]',
	patient_prompts TEXT NOT NULL DEFAULT '[]',
	generated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_competitors_client_id ON competitors(client_id);
CREATE INDEX IF NOT EXISTS idx_analyses_client_id ON analyses(client_id, created_at);
CREATE INDEX IF NOT EXISTS idx_analyses_competitor_id ON analyses(competitor_id);
CREATE INDEX IF NOT EXISTS idx_insights_client_generated ON insights(client_id, generated_at);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateClient(ctx context.Context, c *model.Client) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = s.now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clients (id, name, location, industry, notes, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Location, c.Industry, c.Notes, c.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert client")
}

func (s *SQLiteStore) GetClient(ctx context.Context, id string) (*model.Client, error) {
	var c model.Client
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, location, industry, notes, created_at FROM clients WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Location, &c.Industry, &c.Notes, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: client %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get client %s", id)
	}
	return &c, nil
}

func (s *SQLiteStore) ListClients(ctx context.Context) ([]model.Client, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, location, industry, notes, created_at FROM clients ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list clients")
	}
	defer rows.Close() //nolint:errcheck

	out := []model.Client{}
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Location, &c.Industry, &c.Notes, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan client")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate clients")
}

func (s *SQLiteStore) CreateCompetitor(ctx context.Context, c *model.Competitor) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = s.now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO competitors (id, client_id, name, location, notes, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.ClientID, c.Name, c.Location, c.Notes, c.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert competitor")
}

func (s *SQLiteStore) ListCompetitors(ctx context.Context, clientID string) ([]model.Competitor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, client_id, name, location, notes, created_at FROM competitors WHERE client_id = ? ORDER BY created_at ASC, rowid ASC`,
		clientID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list competitors")
	}
	defer rows.Close() //nolint:errcheck

	out := []model.Competitor{}
	for rows.Next() {
		var c model.Competitor
		if err := rows.Scan(&c.ID, &c.ClientID, &c.Name, &c.Location, &c.Notes, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan competitor")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate competitors")
}

// DeleteCompetitor removes a competitor and its analyses.
func (s *SQLiteStore) DeleteCompetitor(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin delete competitor")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM analyses WHERE competitor_id = ?`, id); err != nil {
		return eris.Wrapf(err, "sqlite: delete analyses of competitor %s", id)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM competitors WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete competitor %s", id)
	}
	if err := checkRowsAffected(res, "competitor", id); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit delete competitor")
}

func (s *SQLiteStore) InsertAnalysis(ctx context.Context, rec *model.AnalysisRecord) error {
	prepareAnalysis(rec, s.now())
	_, err := s.db.ExecContext(ctx, sqliteInsertAnalysis("INSERT"), analysisArgs(rec)...)
	return eris.Wrap(err, "sqlite: insert analysis")
}

// ListAnalyses returns matching analyses, newest first.
func (s *SQLiteStore) ListAnalyses(ctx context.Context, f AnalysisFilter) ([]model.AnalysisRecord, error) {
	where, args := analysisWhere(f, func(int) string { return "?" })
	query := analysisSelect + where + " ORDER BY created_at DESC, rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list analyses")
	}
	defer rows.Close() //nolint:errcheck

	out := []model.AnalysisRecord{}
	for rows.Next() {
		r, err := scanAnalysis(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan analysis")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate analyses")
}

// ImportAnalyses inserts records in one transaction, replacing rows that
// share an id.
func (s *SQLiteStore) ImportAnalyses(ctx context.Context, recs []model.AnalysisRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin import")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, sqliteInsertAnalysis("INSERT OR REPLACE"))
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare import")
	}
	defer stmt.Close() //nolint:errcheck

	now := s.now()
	for i := range recs {
		prepareAnalysis(&recs[i], now)
		if _, err := stmt.ExecContext(ctx, analysisArgs(&recs[i])...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: import analysis %s", recs[i].ID)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit import")
	}
	return int64(len(recs)), nil
}

func (s *SQLiteStore) SaveInsight(ctx context.Context, in *model.Insight) error {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.GeneratedAt.IsZero() {
		in.GeneratedAt = s.now().UTC()
	}
	recs, prompts, err := insightArgs(in)
	if err != nil {
		return eris.Wrap(err, "sqlite: save insight")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO insights (id, client_id, summary, recommendations, patient_prompts, generated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		in.ID, in.ClientID, in.Summary, recs, prompts, in.GeneratedAt,
	)
	return eris.Wrap(err, "sqlite: insert insight")
}

// LatestInsight returns the most recent insight for clientID, or nil when
// none has been generated.
func (s *SQLiteStore) LatestInsight(ctx context.Context, clientID string) (*model.Insight, error) {
	in, err := scanInsight(s.db.QueryRowContext(ctx,
		`SELECT id, client_id, summary, recommendations, patient_prompts, generated_at
		 FROM insights WHERE client_id = ? ORDER BY generated_at DESC, rowid DESC LIMIT 1`,
		clientID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest insight")
	}
	return in, nil
}

func sqliteInsertAnalysis(verb string) string {
	return verb + " INTO analyses (" + joinColumns() + ") VALUES (" +
		strings.TrimSuffix(strings.Repeat("?, ", len(analysisColumns)), ", ") + ")"
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}
