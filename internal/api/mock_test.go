package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pulse/internal/analyze"
	"github.com/sells-group/pulse/internal/model"
	"github.com/sells-group/pulse/internal/store"
)

type mockStore struct {
	mock.Mock
}

var _ store.Store = (*mockStore)(nil)

func (m *mockStore) CreateClient(ctx context.Context, c *model.Client) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockStore) GetClient(ctx context.Context, id string) (*model.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Client), args.Error(1)
}

func (m *mockStore) ListClients(ctx context.Context) ([]model.Client, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Client), args.Error(1)
}

func (m *mockStore) CreateCompetitor(ctx context.Context, c *model.Competitor) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockStore) ListCompetitors(ctx context.Context, clientID string) ([]model.Competitor, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Competitor), args.Error(1)
}

func (m *mockStore) DeleteCompetitor(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) InsertAnalysis(ctx context.Context, rec *model.AnalysisRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockStore) ListAnalyses(ctx context.Context, filter store.AnalysisFilter) ([]model.AnalysisRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AnalysisRecord), args.Error(1)
}

func (m *mockStore) ImportAnalyses(ctx context.Context, recs []model.AnalysisRecord) (int64, error) {
	args := m.Called(ctx, recs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) SaveInsight(ctx context.Context, in *model.Insight) error {
	return m.Called(ctx, in).Error(0)
}

func (m *mockStore) LatestInsight(ctx context.Context, clientID string) (*model.Insight, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Insight), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *mockStore) Close() error                      { return nil }

type mockURLAnalyzer struct {
	mock.Mock
}

func (m *mockURLAnalyzer) AnalyzeURL(ctx context.Context, req analyze.Request) (*model.AnalysisRecord, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AnalysisRecord), args.Error(1)
}

func (m *mockURLAnalyzer) AnalyzeURLs(ctx context.Context, req analyze.BatchRequest) []analyze.BatchResult {
	return m.Called(ctx, req).Get(0).([]analyze.BatchResult)
}

func (m *mockURLAnalyzer) AnalyzeText(ctx context.Context, req analyze.TextRequest) (*model.AnalysisRecord, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AnalysisRecord), args.Error(1)
}

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) Analyze(ctx context.Context, text, label string) (*model.Analysis, error) {
	args := m.Called(ctx, text, label)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Analysis), args.Error(1)
}

func (m *mockAnalyzer) AnalyzeContent(ctx context.Context, text, sourceType string) (*model.Analysis, error) {
	args := m.Called(ctx, text, sourceType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Analysis), args.Error(1)
}

type mockInsights struct {
	mock.Mock
}

func (m *mockInsights) Generate(ctx context.Context, clientID, clientName string, records []model.AnalysisRecord) (*model.Insight, error) {
	args := m.Called(ctx, clientID, clientName, records)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Insight), args.Error(1)
}

type fixture struct {
	store    *mockStore
	analyze  *mockURLAnalyzer
	analyzer *mockAnalyzer
	insights *mockInsights
	handler  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    &mockStore{},
		analyze:  &mockURLAnalyzer{},
		analyzer: &mockAnalyzer{},
		insights: &mockInsights{},
	}
	srv := New(Deps{
		Store:    f.store,
		Analyze:  f.analyze,
		Analyzer: f.analyzer,
		Insights: f.insights,
	}, Options{})
	f.handler = srv.Handler()
	t.Cleanup(func() {
		f.store.AssertExpectations(t)
		f.analyze.AssertExpectations(t)
	})
	return f
}

func (f *fixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[errorBody](t, rec).Error
}
