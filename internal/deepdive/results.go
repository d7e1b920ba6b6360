package deepdive

import (
	"github.com/sells-group/pulse/internal/locations"
)

// Results holds deep-dive outcomes keyed by group name.
type Results map[string]Result

// Failed counts results carrying an error.
func (rs Results) Failed() int {
	n := 0
	for _, r := range rs {
		if !r.OK() {
			n++
		}
	}
	return n
}

// Prune drops results whose group is not among names, as happens after the
// dataset or grouping changes underneath a run.
func (rs Results) Prune(names []string) Results {
	keep := make(map[string]struct{}, len(names))
	for _, n := range names {
		keep[n] = struct{}{}
	}
	out := make(Results, len(rs))
	for name, r := range rs {
		if _, ok := keep[name]; ok {
			out[name] = r
		}
	}
	return out
}

// GroupResult is a group's statistics with its deep dive, if any.
type GroupResult struct {
	locations.LocationStats
	DeepDive *Result `json:"deep_dive,omitempty"`
}

// Merge attaches results to stats by name, preserving the order of stats.
// Results for groups not in stats are discarded.
func (rs Results) Merge(stats []locations.LocationStats) []GroupResult {
	out := make([]GroupResult, len(stats))
	for i, s := range stats {
		out[i] = GroupResult{LocationStats: s}
		if r, ok := rs[s.Name]; ok {
			out[i].DeepDive = &r
		}
	}
	return out
}
