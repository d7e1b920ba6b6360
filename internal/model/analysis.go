package model

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Sentiment is the overall polarity assigned to a body of reviews.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentMixed    Sentiment = "mixed"
	SentimentNeutral  Sentiment = "neutral"
)

// Sentiments returns the known sentiment values in display order.
func Sentiments() []Sentiment {
	return []Sentiment{SentimentPositive, SentimentNegative, SentimentMixed, SentimentNeutral}
}

// Known reports whether s is one of the four recognized values.
func (s Sentiment) Known() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentMixed, SentimentNeutral:
		return true
	}
	return false
}

// NormalizeSentiment lowercases and trims a raw sentiment label.
func NormalizeSentiment(raw string) Sentiment {
	return Sentiment(strings.ToLower(strings.TrimSpace(raw)))
}

// Score is a sentiment score that may be missing or unparseable.
type Score struct {
	Value float64
	Valid bool
}

// ScoreOf returns a valid score.
func ScoreOf(v float64) Score {
	return Score{Value: v, Valid: true}
}

var leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// LeadingFloat reads the number at the start of a cell, ignoring whatever
// follows it, so "8/10" is 8 and "4 stars" is 4. Cells with no leading
// number, or a non-finite one, report false.
func LeadingFloat(raw string) (float64, bool) {
	m := leadingFloat.FindString(strings.TrimSpace(raw))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseScore parses a numeric cell by its leading number. Blank,
// non-numeric, NaN and infinite values produce an invalid score.
func ParseScore(raw string) Score {
	v, ok := LeadingFloat(raw)
	if !ok {
		return Score{}
	}
	return ScoreOf(v)
}

// MarshalJSON writes the score as a number, or null when invalid.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// UnmarshalJSON accepts a number, a numeric string, or null. Anything else
// yields an invalid score rather than an error.
func (s *Score) UnmarshalJSON(data []byte) error {
	*s = Score{}
	if string(data) == "null" {
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*s = ScoreOf(n)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = ParseScore(str)
	}
	return nil
}

// StringList is a list column stored as serialized JSON text. Decoding never
// fails: malformed input becomes an empty list.
type StringList []string

// ParseStringList decodes a JSON array of strings held in a text cell.
// Non-string elements are skipped; any parse failure yields an empty list.
func ParseStringList(raw string) StringList {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return StringList{}
	}
	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return StringList{}
	}
	out := make(StringList, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// UnmarshalJSON accepts either a JSON array or a string holding one.
func (l *StringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = StringList{}
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*l = ParseStringList(str)
		return nil
	}
	*l = ParseStringList(string(data))
	return nil
}

// MarshalJSON always writes an array, never null.
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// Text returns the list serialized for a text column.
func (l StringList) Text() string {
	b, _ := l.MarshalJSON()
	return string(b)
}

// Analysis is the structured result returned by the language model for a
// body of review text.
type Analysis struct {
	OverallSentiment   Sentiment            `json:"overall_sentiment"`
	SentimentScore     Score                `json:"sentiment_score"`
	Confidence         string               `json:"confidence,omitempty"`
	Themes             StringList           `json:"themes"`
	SentimentPerTheme  map[string]Sentiment `json:"sentiment_per_theme,omitempty"`
	PainPoints         StringList           `json:"pain_points"`
	PraisePoints       StringList           `json:"praise_points"`
	CompetitorMentions StringList           `json:"competitor_mentions"`
	FeatureRequests    StringList           `json:"feature_requests"`
	KeyQuote           string               `json:"key_quote,omitempty"`
	Summary            string               `json:"summary,omitempty"`
}

// AnalysisRecord is a persisted Analysis together with where it came from.
type AnalysisRecord struct {
	ID           string    `json:"id,omitempty"`
	URL          string    `json:"url"`
	SourceType   string    `json:"source_type"`
	ProjectName  string    `json:"project_name,omitempty"`
	ClientID     string    `json:"client_id,omitempty"`
	CompetitorID string    `json:"competitor_id,omitempty"`
	RawText      string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	Analysis
}
