package ingest

import "github.com/sells-group/pulse/internal/model"

var analysesColumns = []string{
	model.ColOverallSentiment,
	model.ColSentimentScore,
	model.ColPainPoints,
	model.ColThemes,
}

// Sniff classifies ds by its header alone.
func Sniff(ds model.Dataset) model.DatasetKind {
	return SniffColumns(ds.Columns)
}

// SniffColumns classifies a header. An analyses export needs every analyses
// column; a raw review export needs a review comment or rating column.
func SniffColumns(columns []string) model.DatasetKind {
	set := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		set[c] = struct{}{}
	}

	analyses := true
	for _, c := range analysesColumns {
		if _, ok := set[c]; !ok {
			analyses = false
			break
		}
	}
	if analyses {
		return model.KindAnalysesExport
	}

	_, comment := set[model.ColReviewComment]
	_, rating := set[model.ColReviewRating]
	if comment || rating {
		return model.KindRawReviews
	}
	return model.KindGeneric
}
