package model

// Column names read from raw review exports. Matching is case-sensitive.
const (
	ColReviewRating  = "Review Rating"
	ColReviewComment = "Review Comment"
	ColReviewSource  = "Review Source"
	ColDatePostedOn  = "Date Posted On"
	ColRegion        = "Region"
	ColDivision      = "Division"
	ColState         = "State"
	ColCity          = "City"
	ColBusinessName  = "Business Name"
	ColLocation      = "Location"
)

// Column names read from analyses exports.
const (
	ColOverallSentiment   = "overall_sentiment"
	ColSentimentScore     = "sentiment_score"
	ColConfidence         = "confidence"
	ColThemes             = "themes"
	ColSentimentPerTheme  = "sentiment_per_theme"
	ColPainPoints         = "pain_points"
	ColPraisePoints       = "praise_points"
	ColCompetitorMentions = "competitor_mentions"
	ColFeatureRequests    = "feature_requests"
	ColSourceType         = "source_type"
	ColSummary            = "summary"
	ColKeyQuote           = "key_quote"
	ColURL                = "url"
	ColCreatedAt          = "created_at"
	ColProjectName        = "project_name"
	ColClientID           = "client_id"
	ColCompetitorID       = "competitor_id"
	ColID                 = "id"
)

// Row maps a column name to its cell value. A missing column reads as "".
type Row map[string]string

// Get returns the cell for column, or "" when the row has no such column.
func (r Row) Get(column string) string {
	return r[column]
}

// Dataset is an ordered sequence of rows sharing the header in Columns.
// It is built once per upload and never mutated afterwards.
type Dataset struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Len returns the number of data rows.
func (d Dataset) Len() int {
	return len(d.Rows)
}

// Empty reports whether the dataset has no data rows.
func (d Dataset) Empty() bool {
	return len(d.Rows) == 0
}

// HasColumn reports whether name is part of the header.
func (d Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// DatasetKind classifies a dataset by its header.
type DatasetKind string

const (
	KindRawReviews     DatasetKind = "raw_reviews"
	KindAnalysesExport DatasetKind = "analyses_export"
	KindGeneric        DatasetKind = "generic"
)
