package locations

// LocationStats is the read-only rollup of one Group.
type LocationStats struct {
	Name     string `json:"name" csv:"name"`
	Region   string `json:"region,omitempty" csv:"region"`
	Division string `json:"division,omitempty" csv:"division"`
	State    string `json:"state,omitempty" csv:"state"`
	City     string `json:"city,omitempty" csv:"city"`
	Business string `json:"business,omitempty" csv:"business"`

	// Avg is the mean rating to one decimal, nil when nothing was rated.
	Avg          *float64 `json:"avg" csv:"avg,omitempty"`
	Total        int      `json:"total" csv:"total"`
	RatedCount   int      `json:"rated_count" csv:"rated_count"`
	CommentCount int      `json:"comment_count" csv:"comment_count"`
	Negative     int      `json:"negative" csv:"negative"`
	Positive     int      `json:"positive" csv:"positive"`
	PctNegative  int      `json:"pct_negative" csv:"pct_negative"`
	PctPositive  int      `json:"pct_positive" csv:"pct_positive"`
	HealthScore  int      `json:"health_score" csv:"health_score"`
	Health       string   `json:"health" csv:"health"`
	TopSource    string   `json:"top_source,omitempty" csv:"top_source"`

	RatingDist [6]int         `json:"rating_dist" csv:"-"`
	Sources    map[string]int `json:"sources" csv:"-"`
	Preview    []Comment      `json:"preview" csv:"-"`
}

// Aggregator computes LocationStats under a health policy.
type Aggregator struct {
	Policy       HealthPolicy
	PreviewLimit int
}

// NewAggregator returns an Aggregator with the default policy and a five
// comment preview.
func NewAggregator() Aggregator {
	return Aggregator{Policy: DefaultHealthPolicy(), PreviewLimit: 5}
}

// ComputeStats rolls up g with the default aggregator.
func ComputeStats(g *Group) LocationStats {
	return NewAggregator().Stats(g)
}

// Stats rolls up g. It never fails; a group without ratings has a nil Avg
// and a zero health score.
func (a Aggregator) Stats(g *Group) LocationStats {
	s := LocationStats{
		Name:         g.Name,
		Region:       g.Region,
		Division:     g.Division,
		State:        g.State,
		City:         g.City,
		Business:     g.Business,
		Total:        g.Total(),
		RatedCount:   len(g.Ratings),
		CommentCount: len(g.Comments),
		RatingDist:   g.RatingDist,
		Sources:      g.Sources,
	}

	if len(g.Ratings) > 0 {
		sum := 0.0
		for _, r := range g.Ratings {
			sum += r
			if r <= 2 {
				s.Negative++
			}
			if r >= 4 {
				s.Positive++
			}
		}
		avg := round1(sum / float64(len(g.Ratings)))
		s.Avg = &avg
		s.PctNegative = percent(s.Negative, s.RatedCount)
		s.PctPositive = percent(s.Positive, s.RatedCount)
	}

	s.HealthScore = a.Policy.Score(s.Avg, s.RatedCount)
	s.Health = a.Policy.Label(s.Avg, s.HealthScore)
	s.TopSource = topSource(g)

	n := len(g.Comments)
	if a.PreviewLimit >= 0 && n > a.PreviewLimit {
		n = a.PreviewLimit
	}
	s.Preview = make([]Comment, n)
	copy(s.Preview, g.Comments)

	return s
}

// StatsAll rolls up every group, preserving order.
func (a Aggregator) StatsAll(groups []*Group) []LocationStats {
	out := make([]LocationStats, len(groups))
	for i, g := range groups {
		out[i] = a.Stats(g)
	}
	return out
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(roundHalfUp(100 * float64(part) / float64(whole)))
}

// topSource picks the most frequent source; the first seen wins ties.
func topSource(g *Group) string {
	best, bestCount := "", 0
	for _, src := range g.SourceOrder {
		if c := g.Sources[src]; c > bestCount {
			best, bestCount = src, c
		}
	}
	return best
}
