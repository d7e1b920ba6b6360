package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pulse/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// stepClock returns a clock advancing one minute per call.
func stepClock() func() time.Time {
	t0 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return t0.Add(time.Duration(n) * time.Minute)
	}
}

func sampleAnalysis(url, clientID, competitorID string) *model.AnalysisRecord {
	return &model.AnalysisRecord{
		URL:          url,
		SourceType:   "yelp",
		ClientID:     clientID,
		CompetitorID: competitorID,
		RawText:      "Great staff, long waits.",
		Analysis: model.Analysis{
			OverallSentiment:  model.SentimentMixed,
			SentimentScore:    model.ScoreOf(6),
			Confidence:        "medium",
			Themes:            model.StringList{"staff", "wait times"},
			SentimentPerTheme: map[string]model.Sentiment{"staff": model.SentimentPositive},
			PainPoints:        model.StringList{"long waits"},
			KeyQuote:          "Waited two hours.",
			Summary:           "Mixed.",
		},
	}
}

func TestSQLite_Clients(t *testing.T) {
	st := newTestSQLiteStore(t)
	st.now = stepClock()
	ctx := context.Background()

	a := &model.Client{Name: "St. Mary's", Location: "Austin, TX", Industry: "Healthcare"}
	b := &model.Client{Name: "Acme Dental"}
	require.NoError(t, st.CreateClient(ctx, a))
	require.NoError(t, st.CreateClient(ctx, b))
	assert.NotEmpty(t, a.ID)

	got, err := st.GetClient(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "St. Mary's", got.Name)
	assert.Equal(t, "Austin, TX", got.Location)
	assert.True(t, got.CreatedAt.Equal(a.CreatedAt))

	list, err := st.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Acme Dental", list[0].Name, "newest first")

	_, err = st.GetClient(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_Competitors(t *testing.T) {
	st := newTestSQLiteStore(t)
	st.now = stepClock()
	ctx := context.Background()

	client := &model.Client{Name: "St. Mary's"}
	require.NoError(t, st.CreateClient(ctx, client))

	first := &model.Competitor{ClientID: client.ID, Name: "Seton"}
	second := &model.Competitor{ClientID: client.ID, Name: "Baylor"}
	require.NoError(t, st.CreateCompetitor(ctx, first))
	require.NoError(t, st.CreateCompetitor(ctx, second))

	list, err := st.ListCompetitors(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Seton", list[0].Name, "oldest first")

	empty, err := st.ListCompetitors(ctx, "other-client")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSQLite_DeleteCompetitorCascades(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	client := &model.Client{Name: "St. Mary's"}
	require.NoError(t, st.CreateClient(ctx, client))
	comp := &model.Competitor{ClientID: client.ID, Name: "Seton"}
	require.NoError(t, st.CreateCompetitor(ctx, comp))

	require.NoError(t, st.InsertAnalysis(ctx, sampleAnalysis("https://yelp.com/a", client.ID, "")))
	require.NoError(t, st.InsertAnalysis(ctx, sampleAnalysis("https://yelp.com/b", client.ID, comp.ID)))

	require.NoError(t, st.DeleteCompetitor(ctx, comp.ID))

	recs, err := st.ListAnalyses(ctx, AnalysisFilter{ClientID: client.ID})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "https://yelp.com/a", recs[0].URL)

	assert.ErrorIs(t, st.DeleteCompetitor(ctx, comp.ID), ErrNotFound)
}

func TestSQLite_AnalysesRoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := sampleAnalysis("https://yelp.com/biz/acme", "c1", "")
	rec.RawText = strings.Repeat("é", maxRawText)
	require.NoError(t, st.InsertAnalysis(ctx, rec))
	assert.Equal(t, "default", rec.ProjectName)

	recs, err := st.ListAnalyses(ctx, AnalysisFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	got := recs[0]
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "c1", got.ClientID)
	assert.Empty(t, got.CompetitorID)
	assert.Equal(t, model.SentimentMixed, got.OverallSentiment)
	assert.Equal(t, model.ScoreOf(6), got.SentimentScore)
	assert.Equal(t, model.StringList{"staff", "wait times"}, got.Themes)
	assert.Equal(t, model.StringList{}, got.PraisePoints)
	assert.Equal(t, model.SentimentPositive, got.SentimentPerTheme["staff"])
	assert.LessOrEqual(t, len(got.RawText), maxRawText)
}

func TestSQLite_ListAnalysesFilterAndOrder(t *testing.T) {
	st := newTestSQLiteStore(t)
	st.now = stepClock()
	ctx := context.Background()

	require.NoError(t, st.InsertAnalysis(ctx, sampleAnalysis("u1", "c1", "")))
	require.NoError(t, st.InsertAnalysis(ctx, sampleAnalysis("u2", "c1", "k1")))
	require.NoError(t, st.InsertAnalysis(ctx, sampleAnalysis("u3", "c2", "")))

	recs, err := st.ListAnalyses(ctx, AnalysisFilter{ClientID: "c1"})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "u2", recs[0].URL, "newest first")

	recs, err = st.ListAnalyses(ctx, AnalysisFilter{CompetitorID: "k1"})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	recs, err = st.ListAnalyses(ctx, AnalysisFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "u3", recs[0].URL)
}

func TestSQLite_ImportAnalysesIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	recs := []model.AnalysisRecord{
		*sampleAnalysis("u1", "", ""),
		*sampleAnalysis("u2", "", ""),
	}
	recs[0].ID = "fixed-id"
	recs[1].SentimentScore = model.Score{}

	n, err := st.ImportAnalyses(ctx, recs)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	again := []model.AnalysisRecord{*sampleAnalysis("u1-updated", "", "")}
	again[0].ID = "fixed-id"
	_, err = st.ImportAnalyses(ctx, again)
	require.NoError(t, err)

	all, err := st.ListAnalyses(ctx, AnalysisFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	byURL := map[string]model.AnalysisRecord{}
	for _, r := range all {
		byURL[r.URL] = r
	}
	assert.Contains(t, byURL, "u1-updated")
	assert.False(t, byURL["u2"].SentimentScore.Valid)
}

func TestSQLite_Insights(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	none, err := st.LatestInsight(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, none)

	older := &model.Insight{ClientID: "c1", Summary: "old", GeneratedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := &model.Insight{
		ClientID:        "c1",
		Summary:         "new",
		GeneratedAt:     time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Recommendations: []model.Recommendation{{Platform: "Yelp", Priority: model.PriorityHigh, Action: "Reply"}},
	}
	require.NoError(t, st.SaveInsight(ctx, older))
	require.NoError(t, st.SaveInsight(ctx, newer))

	got, err := st.LatestInsight(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "new", got.Summary)
	require.Len(t, got.Recommendations, 1)
	assert.Equal(t, model.PriorityHigh, got.Recommendations[0].Priority)
	assert.Equal(t, []model.PatientPrompt{}, got.PatientPrompts)
}

func TestSQLite_InMemory(t *testing.T) {
	st, err := NewSQLite(":memory:")
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	require.NoError(t, st.CreateClient(context.Background(), &model.Client{Name: "Acme"}))
	list, err := st.ListClients(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")

	_, err = Open(context.Background(), DriverPostgres, "")
	require.Error(t, err)
}
