package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pulse/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	fixed := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	return &PostgresStore{pool: mock, now: func() time.Time { return fixed }}, mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS clients`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateClient(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`INSERT INTO clients`).
		WithArgs(pgxmock.AnyArg(), "St. Mary's", "Austin, TX", "", "", time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	c := &model.Client{Name: "St. Mary's", Location: "Austin, TX"}
	require.NoError(t, s.CreateClient(context.Background(), c))
	assert.NotEmpty(t, c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetClient_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectQuery(`SELECT id, name, location, industry, notes, created_at FROM clients WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetClient(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListClients(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM clients ORDER BY created_at DESC`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "location", "industry", "notes", "created_at"}).
			AddRow("c2", "Acme Dental", "", "", "", now).
			AddRow("c1", "St. Mary's", "Austin", "Healthcare", "", now.Add(-time.Hour)))

	list, err := s.ListClients(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c2", list[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteCompetitor(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM analyses WHERE competitor_id = \$1`).WithArgs("k1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(`DELETE FROM competitors WHERE id = \$1`).WithArgs("k1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	require.NoError(t, s.DeleteCompetitor(context.Background(), "k1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteCompetitor_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM analyses`).WithArgs("k9").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM competitors`).WithArgs("k9").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	err := s.DeleteCompetitor(context.Background(), "k9")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAnalyses(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	score := 7.5
	client := "c1"

	mock.ExpectQuery(`FROM analyses WHERE client_id = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs("c1", 10).
		WillReturnRows(pgxmock.NewRows(analysisColumns).AddRow(
			"a1", "https://yelp.com/x", "yelp", "default", &client, (*string)(nil),
			"positive", &score, "high",
			`["staff"]`, `{"staff":"positive"}`, `not json`, `[]`, `[]`, `[]`,
			"quote", "summary", "raw", now,
		))

	recs, err := s.ListAnalyses(context.Background(), AnalysisFilter{ClientID: "c1", Limit: 10})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	r := recs[0]
	assert.Equal(t, "c1", r.ClientID)
	assert.Empty(t, r.CompetitorID)
	assert.Equal(t, model.ScoreOf(7.5), r.SentimentScore)
	assert.Equal(t, model.StringList{"staff"}, r.Themes)
	assert.Equal(t, model.StringList{}, r.PainPoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertAnalysis(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	args := make([]any, len(analysisColumns))
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	mock.ExpectExec(`INSERT INTO analyses \(id, url, source_type`).WithArgs(args...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec := &model.AnalysisRecord{URL: "https://g2.com/x", SourceType: "g2"}
	require.NoError(t, s.InsertAnalysis(context.Background(), rec))
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "default", rec.ProjectName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ImportAnalyses(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"analyses_import"}, analysisColumns).WillReturnResult(1)
	mock.ExpectExec(`INSERT INTO "analyses" .* ON CONFLICT \("id"\) DO UPDATE SET "url" = EXCLUDED."url"`).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectCopyFrom(pgx.Identifier{"analyses"}, analysisColumns).WillReturnResult(2)

	recs := []model.AnalysisRecord{
		{ID: "keep-me", URL: "u1"},
		{URL: "u2"},
		{URL: "u3"},
	}
	n, err := s.ImportAnalyses(context.Background(), recs)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, "keep-me", recs[0].ID)
	assert.NotEmpty(t, recs[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestInsight_None(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectQuery(`FROM insights WHERE client_id = \$1`).WithArgs("c1").WillReturnError(pgx.ErrNoRows)

	in, err := s.LatestInsight(context.Background(), "c1")
	require.NoError(t, err)
	assert.Nil(t, in)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveInsight(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`INSERT INTO insights`).
		WithArgs(pgxmock.AnyArg(), "c1", "summary", "[]", "[]", time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	in := &model.Insight{ClientID: "c1", Summary: "summary"}
	require.NoError(t, s.SaveInsight(context.Background(), in))
	assert.NotEmpty(t, in.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
