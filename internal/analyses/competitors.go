package analyses

import (
	"github.com/sells-group/pulse/internal/model"
)

// CompetitorSummary compares one competitor against the client.
type CompetitorSummary struct {
	CompetitorID string          `json:"competitor_id"`
	Name         string          `json:"name"`
	Analyses     int             `json:"analyses"`
	Avg          *float64        `json:"avg"`
	Dominant     model.Sentiment `json:"dominant"`
	Summary      string          `json:"summary,omitempty"`
}

// SummarizeCompetitors groups competitor analyses by competitor. Records for
// competitors not in the list are ignored. Output follows the order in which
// competitors first appear among the records.
func SummarizeCompetitors(records []model.AnalysisRecord, competitors []model.Competitor) []CompetitorSummary {
	names := make(map[string]string, len(competitors))
	for _, c := range competitors {
		names[c.ID] = c.Name
	}

	type acc struct {
		summary CompetitorSummary
		scores  []float64
		sents   counter
	}
	var order []*acc
	byID := make(map[string]*acc)

	for _, r := range records {
		name, ok := names[r.CompetitorID]
		if r.CompetitorID == "" || !ok {
			continue
		}
		a, seen := byID[r.CompetitorID]
		if !seen {
			a = &acc{summary: CompetitorSummary{CompetitorID: r.CompetitorID, Name: name, Summary: r.Summary}}
			byID[r.CompetitorID] = a
			order = append(order, a)
		}
		a.summary.Analyses++
		if r.SentimentScore.Valid {
			a.scores = append(a.scores, r.SentimentScore.Value)
		}
		a.sents.add(string(model.NormalizeSentiment(string(r.OverallSentiment))))
	}

	out := make([]CompetitorSummary, 0, len(order))
	for _, a := range order {
		if len(a.scores) > 0 {
			avg := round1(mean(a.scores))
			a.summary.Avg = &avg
		}
		a.summary.Dominant = model.SentimentNeutral
		if top := a.sents.top(1); len(top) == 1 {
			a.summary.Dominant = model.Sentiment(top[0].Value)
		}
		out = append(out, a.summary)
	}
	return out
}
