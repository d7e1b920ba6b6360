package locations

import "strings"

// DeepDiveInput is the self-contained unit handed to the language model for
// one group. Results are merged back by Name.
type DeepDiveInput struct {
	Name        string `json:"name"`
	Text        string `json:"text"`
	ReviewCount int    `json:"review_count"` // rows with a comment
	Rows        int    `json:"rows"`
}

// DeepDiveInputFor builds the review text for g. Each commented row becomes
// "Rating: r/5 | Source: s | Date: d | comment" with blank parts omitted,
// and rows are separated by a blank line.
func DeepDiveInputFor(g *Group) DeepDiveInput {
	lines := make([]string, 0, len(g.Comments))
	for _, c := range g.Comments {
		parts := make([]string, 0, 4)
		if c.Rating != "" {
			parts = append(parts, "Rating: "+c.Rating+"/5")
		}
		if c.Source != "" {
			parts = append(parts, "Source: "+c.Source)
		}
		if c.Date != "" {
			parts = append(parts, "Date: "+c.Date)
		}
		parts = append(parts, c.Text)
		lines = append(lines, strings.Join(parts, " | "))
	}

	return DeepDiveInput{
		Name:        g.Name,
		Text:        strings.Join(lines, "\n\n"),
		ReviewCount: len(g.Comments),
		Rows:        g.Total(),
	}
}

// DeepDiveInputs builds inputs for the named groups, in the order given.
// With no names, every group is included. Unknown names are skipped.
func (g Grouping) DeepDiveInputs(names ...string) []DeepDiveInput {
	if len(names) == 0 {
		out := make([]DeepDiveInput, len(g.Groups))
		for i, grp := range g.Groups {
			out[i] = DeepDiveInputFor(grp)
		}
		return out
	}

	out := make([]DeepDiveInput, 0, len(names))
	for _, name := range names {
		if grp := g.Find(name); grp != nil {
			out = append(out, DeepDiveInputFor(grp))
		}
	}
	return out
}
