package analyses

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sells-group/pulse/internal/model"
)

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// RecordsFromDataset reads an analyses export into records. Missing columns
// read as blank; list columns are parsed leniently.
func RecordsFromDataset(ds model.Dataset) []model.AnalysisRecord {
	out := make([]model.AnalysisRecord, 0, ds.Len())
	for _, row := range ds.Rows {
		out = append(out, RecordFromRow(row))
	}
	return out
}

// RecordFromRow converts one export row.
func RecordFromRow(row model.Row) model.AnalysisRecord {
	rec := model.AnalysisRecord{
		ID:           row.Get(model.ColID),
		URL:          row.Get(model.ColURL),
		SourceType:   row.Get(model.ColSourceType),
		ProjectName:  row.Get(model.ColProjectName),
		ClientID:     row.Get(model.ColClientID),
		CompetitorID: row.Get(model.ColCompetitorID),
		CreatedAt:    parseCreatedAt(row.Get(model.ColCreatedAt)),
		Analysis: model.Analysis{
			OverallSentiment:   model.NormalizeSentiment(row.Get(model.ColOverallSentiment)),
			SentimentScore:     model.ParseScore(row.Get(model.ColSentimentScore)),
			Confidence:         row.Get(model.ColConfidence),
			Themes:             model.ParseStringList(row.Get(model.ColThemes)),
			PainPoints:         model.ParseStringList(row.Get(model.ColPainPoints)),
			PraisePoints:       model.ParseStringList(row.Get(model.ColPraisePoints)),
			CompetitorMentions: model.ParseStringList(row.Get(model.ColCompetitorMentions)),
			FeatureRequests:    model.ParseStringList(row.Get(model.ColFeatureRequests)),
			KeyQuote:           row.Get(model.ColKeyQuote),
			Summary:            row.Get(model.ColSummary),
		},
	}
	if raw := row.Get(model.ColSentimentPerTheme); raw != "" {
		var per map[string]model.Sentiment
		if json.Unmarshal([]byte(raw), &per) == nil {
			rec.SentimentPerTheme = per
		}
	}
	return rec
}

func parseCreatedAt(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// SplitByOwner separates a client's own analyses from those recorded
// against its competitors.
func SplitByOwner(records []model.AnalysisRecord) (own, competitors []model.AnalysisRecord) {
	for _, r := range records {
		if r.CompetitorID != "" {
			competitors = append(competitors, r)
		} else {
			own = append(own, r)
		}
	}
	return own, competitors
}
