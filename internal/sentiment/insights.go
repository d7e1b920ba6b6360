package sentiment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pulse/internal/analyses"
	"github.com/sells-group/pulse/internal/model"
	"github.com/sells-group/pulse/internal/resilience"
	"github.com/sells-group/pulse/pkg/anthropic"
)

const maxInsightSummaries = 6

// insightLimits caps the frequency tables sent to the model.
var insightLimits = analyses.Limits{Themes: 8, Pains: 8, Praise: 6}

// InsightGenerator asks Claude for strategic recommendations over a
// client's analyses.
type InsightGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	retry     resilience.Policy
	now       func() time.Time
}

// NewInsightGenerator creates an InsightGenerator. Zero values use the
// package defaults.
func NewInsightGenerator(client anthropic.Client, modelName string, maxTokens int64) *InsightGenerator {
	if modelName == "" {
		modelName = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultInsightMaxToken
	}
	return &InsightGenerator{
		client:    client,
		model:     modelName,
		maxTokens: maxTokens,
		retry:     claudePolicy("insights"),
		now:       time.Now,
	}
}

type insightReply struct {
	ExecutiveSummary string                 `json:"executive_summary"`
	Recommendations  []model.Recommendation `json:"recommendations"`
	PatientPrompts   []model.PatientPrompt  `json:"patient_prompts"`
}

// Generate builds an Insight for clientID from records. It fails when there
// are no records to summarize.
func (g *InsightGenerator) Generate(ctx context.Context, clientID, clientName string, records []model.AnalysisRecord) (*model.Insight, error) {
	if clientID == "" || len(records) == 0 {
		return nil, eris.New("sentiment: client_id and analyses required")
	}

	raw, err := complete(ctx, g.client, g.retry, anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages:  anthropic.UserMessage(insightsPrompt(buildFacts(clientName, records))),
	}, "insights")
	if err != nil {
		return nil, err
	}

	var reply insightReply
	if err := decodeObject(raw, &reply); err != nil {
		return nil, err
	}
	if reply.Recommendations == nil {
		reply.Recommendations = []model.Recommendation{}
	}
	if reply.PatientPrompts == nil {
		reply.PatientPrompts = []model.PatientPrompt{}
	}
	return &model.Insight{
		ID:              uuid.NewString(),
		ClientID:        clientID,
		Summary:         reply.ExecutiveSummary,
		Recommendations: reply.Recommendations,
		PatientPrompts:  reply.PatientPrompts,
		GeneratedAt:     g.now().UTC(),
	}, nil
}

func buildFacts(clientName string, records []model.AnalysisRecord) insightFacts {
	sum := analyses.AggregateWith(records, insightLimits)
	f := insightFacts{ClientName: clientName}

	for _, p := range sum.Platforms {
		f.Platforms = append(f.Platforms, fmt.Sprintf("%s: %d reviews, %d%% negative, %d%% positive",
			p.Source, p.Total, p.PctNegative, p.PctPositive))
	}
	for _, c := range sum.TopThemes {
		f.Themes = append(f.Themes, fmt.Sprintf("%s (%dx)", c.Value, c.Count))
	}
	for _, c := range sum.TopPains {
		f.Pains = append(f.Pains, fmt.Sprintf("%q (%dx)", c.Value, c.Count))
	}
	for _, c := range sum.TopPraise {
		f.Praise = append(f.Praise, fmt.Sprintf("%q (%dx)", c.Value, c.Count))
	}
	for _, r := range records {
		if len(f.Summaries) == maxInsightSummaries {
			break
		}
		if strings.TrimSpace(r.Summary) == "" {
			continue
		}
		src := r.SourceType
		if src == "" {
			src = analyses.DefaultSource
		}
		f.Summaries = append(f.Summaries, fmt.Sprintf("[%s] %s", src, r.Summary))
	}
	return f
}
