// Package analyses rolls up stored sentiment analyses into dashboard
// aggregates: frequency tables, score averages and per-platform breakdowns.
package analyses

import (
	"math"
	"sort"
	"strings"

	"github.com/sells-group/pulse/internal/model"
)

// DefaultSource labels records with no source type.
const DefaultSource = "other"

// Count is one entry of a frequency table.
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// SourceAvg is the mean sentiment score of one source type.
type SourceAvg struct {
	Source string   `json:"source"`
	Avg    *float64 `json:"avg"`
	Count  int      `json:"count"`
	Scored int      `json:"scored"`
}

// Platform breaks sentiment down for one source type.
type Platform struct {
	Source      string   `json:"source"`
	Positive    int      `json:"positive"`
	Negative    int      `json:"negative"`
	Mixed       int      `json:"mixed"`
	Neutral     int      `json:"neutral"`
	Total       int      `json:"total"`
	Avg         *float64 `json:"avg"`
	PctNegative int      `json:"pct_negative"`
	PctPositive int      `json:"pct_positive"`

	scores []float64
}

// Quote is a representative quote pulled from a record.
type Quote struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	URL    string `json:"url,omitempty"`
}

// Summary is the aggregate view over a set of analysis records.
type Summary struct {
	Total           int                     `json:"total"`
	AvgScore        *float64                `json:"avg_score"`
	Scored          int                     `json:"scored"`
	SentimentCounts map[model.Sentiment]int `json:"sentiment_counts"`
	TopThemes       []Count                 `json:"top_themes"`
	TopPains        []Count                 `json:"top_pains"`
	TopPraise       []Count                 `json:"top_praise"`
	TopCompetitors  []Count                 `json:"top_competitors"`
	SourceAvgs      []SourceAvg             `json:"source_avgs"`
	Platforms       []Platform              `json:"platforms"`
	KeyQuotes       []Quote                 `json:"key_quotes"`
}

// Limits caps the size of each top-N table.
type Limits struct {
	Themes      int
	Pains       int
	Praise      int
	Competitors int
	Quotes      int
}

// DefaultLimits are used for analyses exports.
func DefaultLimits() Limits {
	return Limits{Themes: 10, Pains: 8, Praise: 8, Competitors: 8, Quotes: 4}
}

// DashboardLimits are used for the client dashboard.
func DashboardLimits() Limits {
	return Limits{Themes: 8, Pains: 6, Praise: 6, Competitors: 8, Quotes: 4}
}

// Aggregate summarizes records with DefaultLimits.
func Aggregate(records []model.AnalysisRecord) Summary {
	return AggregateWith(records, DefaultLimits())
}

// AggregateWith summarizes records. Malformed fields contribute nothing and
// never abort the aggregation.
func AggregateWith(records []model.AnalysisRecord, lim Limits) Summary {
	s := Summary{
		Total:           len(records),
		SentimentCounts: make(map[model.Sentiment]int, 4),
	}
	for _, sent := range model.Sentiments() {
		s.SentimentCounts[sent] = 0
	}

	var (
		themes, pains, praise, competitors counter
		sum                                float64
		platforms                          []*Platform
		byPlatform                         = make(map[string]*Platform)
	)

	for _, r := range records {
		themes.addAll(r.Themes)
		pains.addAll(r.PainPoints)
		praise.addAll(r.PraisePoints)
		competitors.addAll(r.CompetitorMentions)

		sent := model.NormalizeSentiment(string(r.OverallSentiment))
		if sent.Known() {
			s.SentimentCounts[sent]++
		}
		if r.SentimentScore.Valid {
			sum += r.SentimentScore.Value
			s.Scored++
		}

		src := sourceOf(r)
		p, ok := byPlatform[src]
		if !ok {
			p = &Platform{Source: src}
			byPlatform[src] = p
			platforms = append(platforms, p)
		}
		p.add(sent, r.SentimentScore)

		if q := strings.TrimSpace(r.KeyQuote); q != "" && len(s.KeyQuotes) < lim.Quotes {
			s.KeyQuotes = append(s.KeyQuotes, Quote{Text: q, Source: src, URL: r.URL})
		}
	}

	if s.Scored > 0 {
		avg := round1(sum / float64(s.Scored))
		s.AvgScore = &avg
	}

	s.TopThemes = themes.top(lim.Themes)
	s.TopPains = pains.top(lim.Pains)
	s.TopPraise = praise.top(lim.Praise)
	s.TopCompetitors = competitors.top(lim.Competitors)

	s.Platforms = make([]Platform, len(platforms))
	s.SourceAvgs = make([]SourceAvg, len(platforms))
	for i, p := range platforms {
		p.finish()
		s.Platforms[i] = *p
		s.SourceAvgs[i] = SourceAvg{Source: p.Source, Avg: p.Avg, Count: p.Total, Scored: len(p.scores)}
	}
	sort.SliceStable(s.SourceAvgs, func(i, j int) bool {
		return avgOrNegInf(s.SourceAvgs[i].Avg) > avgOrNegInf(s.SourceAvgs[j].Avg)
	})
	if s.KeyQuotes == nil {
		s.KeyQuotes = []Quote{}
	}

	return s
}

func sourceOf(r model.AnalysisRecord) string {
	if src := strings.TrimSpace(r.SourceType); src != "" {
		return src
	}
	return DefaultSource
}

func (p *Platform) add(sent model.Sentiment, score model.Score) {
	p.Total++
	switch sent {
	case model.SentimentPositive:
		p.Positive++
	case model.SentimentNegative:
		p.Negative++
	case model.SentimentMixed:
		p.Mixed++
	case model.SentimentNeutral:
		p.Neutral++
	}
	if score.Valid {
		p.scores = append(p.scores, score.Value)
	}
}

func (p *Platform) finish() {
	if len(p.scores) > 0 {
		avg := round1(mean(p.scores))
		p.Avg = &avg
	}
	p.PctNegative = percent(p.Negative, p.Total)
	p.PctPositive = percent(p.Positive, p.Total)
}

// counter is a frequency table that remembers first-seen order.
type counter struct {
	order  []string
	counts map[string]int
}

func (c *counter) addAll(values []string) {
	for _, v := range values {
		c.add(v)
	}
}

func (c *counter) add(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	if _, ok := c.counts[v]; !ok {
		c.order = append(c.order, v)
	}
	c.counts[v]++
}

// top returns the n most frequent values; ties keep first-seen order.
func (c *counter) top(n int) []Count {
	out := make([]Count, len(c.order))
	for i, v := range c.order {
		out[i] = Count{Value: v, Count: c.counts[v]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func round1(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Floor(100*float64(part)/float64(whole) + 0.5))
}

func avgOrNegInf(p *float64) float64 {
	if p == nil {
		return math.Inf(-1)
	}
	return *p
}
