package locations

import (
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/pulse/internal/model"
)

// Comment is one verbatim review attached to a group.
type Comment struct {
	Text   string `json:"text"`
	Rating string `json:"rating,omitempty"`
	Date   string `json:"date,omitempty"`
	Source string `json:"source,omitempty"`
}

// Group holds every row sharing one grouping-key value. The descriptive
// fields come from the first row seen for the group and are display only.
type Group struct {
	Name     string `json:"name"`
	Region   string `json:"region,omitempty"`
	Division string `json:"division,omitempty"`
	State    string `json:"state,omitempty"`
	City     string `json:"city,omitempty"`
	Business string `json:"business,omitempty"`
	Location string `json:"location,omitempty"`

	Rows     []model.Row `json:"-"`
	Ratings  []float64   `json:"ratings"`
	Comments []Comment   `json:"comments"`

	// Sources counts rows per review source. SourceOrder lists each source
	// once, in the order it was first seen.
	Sources     map[string]int `json:"sources"`
	SourceOrder []string       `json:"-"`

	// RatingDist counts ratings per star bucket 0 to 5.
	RatingDist [6]int `json:"rating_dist"`
}

// Total returns the number of rows in the group.
func (g *Group) Total() int {
	return len(g.Rows)
}

func newGroup(name string, first model.Row) *Group {
	return &Group{
		Name:     name,
		Region:   first.Get(model.ColRegion),
		Division: first.Get(model.ColDivision),
		State:    first.Get(model.ColState),
		City:     first.Get(model.ColCity),
		Business: first.Get(model.ColBusinessName),
		Location: first.Get(model.ColLocation),
		Sources:  make(map[string]int),
	}
}

func (g *Group) add(r model.Row) {
	g.Rows = append(g.Rows, r)

	rawRating := r.Get(model.ColReviewRating)
	if v, ok := ParseRating(rawRating); ok {
		g.Ratings = append(g.Ratings, v)
		g.RatingDist[ratingBucket(v)]++
	}

	if text := strings.TrimSpace(r.Get(model.ColReviewComment)); text != "" {
		g.Comments = append(g.Comments, Comment{
			Text:   text,
			Rating: rawRating,
			Date:   r.Get(model.ColDatePostedOn),
			Source: r.Get(model.ColReviewSource),
		})
	}

	if src := strings.TrimSpace(r.Get(model.ColReviewSource)); src != "" {
		if _, seen := g.Sources[src]; !seen {
			g.SourceOrder = append(g.SourceOrder, src)
		}
		g.Sources[src]++
	}
}

// ParseRating reads the leading number of a rating cell, so "4 stars" is 4.
// Cells with no leading number, or a non-finite one, are not ratings.
func ParseRating(raw string) (float64, bool) {
	return model.LeadingFloat(raw)
}

func ratingBucket(v float64) int {
	return int(roundHalfUp(math.Max(0, math.Min(5, v))))
}

// Grouping is the result of partitioning a dataset.
type Grouping struct {
	// Groups are in the order their first row appeared.
	Groups []*Group
	// Dropped counts rows excluded by the noise filter.
	Dropped int
}

// Names returns the group names in order.
func (g Grouping) Names() []string {
	names := make([]string, len(g.Groups))
	for i, grp := range g.Groups {
		names[i] = grp.Name
	}
	return names
}

// Find returns the group named name, or nil.
func (g Grouping) Find(name string) *Group {
	for _, grp := range g.Groups {
		if grp.Name == name {
			return grp
		}
	}
	return nil
}

// Grouper partitions datasets into groups, discarding noise keys.
type Grouper struct {
	Noise NoiseFilter
}

// NewGrouper returns a Grouper using the default noise filter.
func NewGrouper() Grouper {
	return Grouper{Noise: DefaultNoiseFilter()}
}

// Group buckets every row of ds by key. Each row lands in exactly one group
// or is counted in Dropped.
func (gr Grouper) Group(ds model.Dataset, key KeyFunc) Grouping {
	var out Grouping
	index := make(map[string]*Group)

	for _, row := range ds.Rows {
		k := strings.TrimSpace(key(row))
		if k == "" {
			k = UnknownKey
		}
		if gr.Noise.Drops(k) {
			out.Dropped++
			continue
		}

		g, ok := index[k]
		if !ok {
			g = newGroup(k, row)
			index[k] = g
			out.Groups = append(out.Groups, g)
		}
		g.add(row)
	}

	zap.L().Debug("locations: grouped rows",
		zap.Int("rows", ds.Len()),
		zap.Int("groups", len(out.Groups)),
		zap.Int("dropped", out.Dropped),
	)
	return out
}

// GroupRows partitions ds by key with the default noise filter.
func GroupRows(ds model.Dataset, key KeyFunc) Grouping {
	return NewGrouper().Group(ds, key)
}

// GroupBy partitions ds by a preset name or a literal column name.
func GroupBy(ds model.Dataset, column string) Grouping {
	return GroupRows(ds, ResolveKey(column))
}
