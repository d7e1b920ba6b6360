package analyses

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pulse/internal/model"
)

func TestSummarizeCompetitors(t *testing.T) {
	competitors := []model.Competitor{
		{ID: "k1", Name: "Rival Dental"},
		{ID: "k2", Name: "Smile Co"},
	}
	withComp := func(id, sentiment, score string) model.AnalysisRecord {
		r := rec("g2", sentiment, score, "")
		r.CompetitorID = id
		r.Summary = "summary " + id
		return r
	}

	out := SummarizeCompetitors([]model.AnalysisRecord{
		withComp("k2", "mixed", "6"),
		withComp("k1", "negative", "3"),
		withComp("k2", "positive", "9"),
		withComp("k2", "positive", "bad"),
		withComp("k9", "positive", "9"),
		withComp("", "positive", "9"),
	}, competitors)

	require.Len(t, out, 2)
	assert.Equal(t, "Smile Co", out[0].Name)
	assert.Equal(t, 3, out[0].Analyses)
	assert.Equal(t, 7.5, *out[0].Avg)
	assert.Equal(t, model.SentimentPositive, out[0].Dominant)
	assert.Equal(t, "summary k2", out[0].Summary)

	assert.Equal(t, "Rival Dental", out[1].Name)
	assert.Equal(t, model.SentimentNegative, out[1].Dominant)
}

func TestSummarizeCompetitors_DefaultsToNeutral(t *testing.T) {
	r := rec("g2", "", "", "")
	r.CompetitorID = "k1"
	out := SummarizeCompetitors([]model.AnalysisRecord{r}, []model.Competitor{{ID: "k1", Name: "Rival"}})
	require.Len(t, out, 1)
	assert.Equal(t, model.SentimentNeutral, out[0].Dominant)
	assert.Nil(t, out[0].Avg)
}
