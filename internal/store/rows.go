package store

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pulse/internal/model"
)

// maxRawText caps the scraped text kept with an analysis.
const maxRawText = 50000

var analysisColumns = []string{
	"id", "url", "source_type", "project_name", "client_id", "competitor_id",
	"overall_sentiment", "sentiment_score", "confidence",
	"themes", "sentiment_per_theme", "pain_points", "praise_points",
	"competitor_mentions", "feature_requests",
	"key_quote", "summary", "raw_text", "created_at",
}

var analysisSelect = "SELECT " + strings.Join(analysisColumns, ", ") + " FROM analyses"

type scannable interface {
	Scan(dest ...any) error
}

// prepareAnalysis fills the id and timestamp and caps the raw text.
func prepareAnalysis(rec *model.AnalysisRecord, now time.Time) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now.UTC()
	}
	if rec.ProjectName == "" {
		rec.ProjectName = "default"
	}
	if len(rec.RawText) > maxRawText {
		rec.RawText = truncateUTF8(rec.RawText, maxRawText)
	}
}

func analysisArgs(r *model.AnalysisRecord) []any {
	return []any{
		r.ID, r.URL, r.SourceType, r.ProjectName, nullable(r.ClientID), nullable(r.CompetitorID),
		string(r.OverallSentiment), scoreArg(r.SentimentScore), r.Confidence,
		r.Themes.Text(), themeText(r.SentimentPerTheme), r.PainPoints.Text(), r.PraisePoints.Text(),
		r.CompetitorMentions.Text(), r.FeatureRequests.Text(),
		r.KeyQuote, r.Summary, r.RawText, r.CreatedAt,
	}
}

func scanAnalysis(row scannable) (model.AnalysisRecord, error) {
	var r model.AnalysisRecord
	var clientID, competitorID *string
	var score *float64
	var sentiment, themes, perTheme, pains, praise, comps, feats string
	err := row.Scan(
		&r.ID, &r.URL, &r.SourceType, &r.ProjectName, &clientID, &competitorID,
		&sentiment, &score, &r.Confidence,
		&themes, &perTheme, &pains, &praise, &comps, &feats,
		&r.KeyQuote, &r.Summary, &r.RawText, &r.CreatedAt,
	)
	if err != nil {
		return r, err
	}
	if clientID != nil {
		r.ClientID = *clientID
	}
	if competitorID != nil {
		r.CompetitorID = *competitorID
	}
	if score != nil {
		r.SentimentScore = model.ScoreOf(*score)
	}
	r.OverallSentiment = model.Sentiment(sentiment)
	r.Themes = model.ParseStringList(themes)
	r.SentimentPerTheme = parseThemeMap(perTheme)
	r.PainPoints = model.ParseStringList(pains)
	r.PraisePoints = model.ParseStringList(praise)
	r.CompetitorMentions = model.ParseStringList(comps)
	r.FeatureRequests = model.ParseStringList(feats)
	return r, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scoreArg(s model.Score) any {
	if !s.Valid {
		return nil
	}
	return s.Value
}

func themeText(m map[string]model.Sentiment) string {
	if len(m) == 0 {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func parseThemeMap(raw string) map[string]model.Sentiment {
	out := map[string]model.Sentiment{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]model.Sentiment{}
	}
	return out
}

func insightArgs(in *model.Insight) (recs, prompts string, err error) {
	rb, err := json.Marshal(nonNil(in.Recommendations))
	if err != nil {
		return "", "", eris.Wrap(err, "marshal recommendations")
	}
	pb, err := json.Marshal(nonNil(in.PatientPrompts))
	if err != nil {
		return "", "", eris.Wrap(err, "marshal patient prompts")
	}
	return string(rb), string(pb), nil
}

func scanInsight(row scannable) (*model.Insight, error) {
	var in model.Insight
	var recs, prompts string
	if err := row.Scan(&in.ID, &in.ClientID, &in.Summary, &recs, &prompts, &in.GeneratedAt); err != nil {
		return nil, err
	}
	// Malformed stored lists read back as empty.
	if json.Unmarshal([]byte(recs), &in.Recommendations) != nil || in.Recommendations == nil {
		in.Recommendations = []model.Recommendation{}
	}
	if json.Unmarshal([]byte(prompts), &in.PatientPrompts) != nil || in.PatientPrompts == nil {
		in.PatientPrompts = []model.PatientPrompt{}
	}
	return &in, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// analysisWhere builds the WHERE clause for f using placeholder(i) for the
// i-th (1-based) argument.
func analysisWhere(f AnalysisFilter, placeholder func(int) string) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.ClientID != "" {
		args = append(args, f.ClientID)
		conds = append(conds, "client_id = "+placeholder(len(args)))
	}
	if f.CompetitorID != "" {
		args = append(args, f.CompetitorID)
		conds = append(conds, "competitor_id = "+placeholder(len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
