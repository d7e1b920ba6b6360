package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/pulse/internal/model"
)

func TestSniffColumns(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		want    model.DatasetKind
	}{
		{"analyses export", []string{"url", "overall_sentiment", "sentiment_score", "pain_points", "themes"}, model.KindAnalysesExport},
		{"analyses wins over reviews", []string{"overall_sentiment", "sentiment_score", "pain_points", "themes", "Review Comment"}, model.KindAnalysesExport},
		{"partial analyses", []string{"overall_sentiment", "sentiment_score", "themes"}, model.KindGeneric},
		{"review comment", []string{"Region", "Review Comment"}, model.KindRawReviews},
		{"review rating", []string{"Review Rating"}, model.KindRawReviews},
		{"case sensitive", []string{"review rating", "OVERALL_SENTIMENT"}, model.KindGeneric},
		{"empty", nil, model.KindGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SniffColumns(tt.columns))
		})
	}
}

func TestSniff_IgnoresRows(t *testing.T) {
	ds := model.Dataset{
		Columns: []string{"name"},
		Rows:    []model.Row{{"Review Comment": "x", "name": "a"}},
	}
	assert.Equal(t, model.KindGeneric, Sniff(ds))
}
