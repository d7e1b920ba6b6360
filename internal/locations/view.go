package locations

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// SortKey names a dashboard ordering.
type SortKey string

const (
	SortAvgAsc   SortKey = "avg_asc"  // worst first, unrated last
	SortAvgDesc  SortKey = "avg_desc" // best first, unrated last
	SortVolume   SortKey = "volume"   // most rows first
	SortNegative SortKey = "negative" // highest negative share first
)

// SortKeys returns the supported orderings.
func SortKeys() []SortKey {
	return []SortKey{SortAvgAsc, SortAvgDesc, SortVolume, SortNegative}
}

// View filters and orders stats without modifying them. The filter matches
// name, region or state by case-insensitive substring; an empty filter keeps
// everything. Unknown sort keys keep the input order.
func View(stats []LocationStats, filter string, key SortKey) []LocationStats {
	idx := order(stats, filter, key)
	out := make([]LocationStats, len(idx))
	for i, j := range idx {
		out[i] = stats[j]
	}
	return out
}

// ViewGroups applies View to groups, computing their stats with a.
func (a Aggregator) ViewGroups(groups []*Group, filter string, key SortKey) []*Group {
	idx := order(a.StatsAll(groups), filter, key)
	out := make([]*Group, len(idx))
	for i, j := range idx {
		out[i] = groups[j]
	}
	return out
}

func order(stats []LocationStats, filter string, key SortKey) []int {
	idx := make([]int, 0, len(stats))
	needle := cases.Fold().String(strings.TrimSpace(filter))
	for i, s := range stats {
		if matches(s, needle) {
			idx = append(idx, i)
		}
	}

	var less func(a, b LocationStats) bool
	switch key {
	case SortAvgAsc:
		less = func(a, b LocationStats) bool { return avgOr(a, math.Inf(1)) < avgOr(b, math.Inf(1)) }
	case SortAvgDesc:
		less = func(a, b LocationStats) bool { return avgOr(a, 0) > avgOr(b, 0) }
	case SortVolume:
		less = func(a, b LocationStats) bool { return a.Total > b.Total }
	case SortNegative:
		less = func(a, b LocationStats) bool { return a.PctNegative > b.PctNegative }
	default:
		return idx
	}

	sort.SliceStable(idx, func(i, j int) bool {
		return less(stats[idx[i]], stats[idx[j]])
	})
	return idx
}

func matches(s LocationStats, needle string) bool {
	if needle == "" {
		return true
	}
	fold := cases.Fold()
	for _, field := range []string{s.Name, s.Region, s.State} {
		if strings.Contains(fold.String(field), needle) {
			return true
		}
	}
	return false
}

func avgOr(s LocationStats, fallback float64) float64 {
	if s.Avg == nil {
		return fallback
	}
	return *s.Avg
}
