package locations

import (
	"strings"

	"golang.org/x/text/cases"
)

// UnknownKey is the key assigned to rows with no value for the grouping key.
// Rows under it are always dropped.
const UnknownKey = "Unknown"

// NoiseFilter decides which grouping keys are junk rather than real places.
type NoiseFilter struct {
	// MinIDDigits drops keys that start with at least this many digits,
	// which in practice are database ids. Zero disables the check.
	MinIDDigits int `yaml:"min_id_digits"`
	// Substrings drops keys containing any of these, ignoring case.
	Substrings []string `yaml:"substrings"`
}

// DefaultNoiseFilter returns the filter applied when no rules file overrides it.
func DefaultNoiseFilter() NoiseFilter {
	return NoiseFilter{
		MinIDDigits: 5,
		Substrings:  []string{"corporate rollup"},
	}
}

// Drops reports whether rows keyed by key are excluded from grouping.
func (f NoiseFilter) Drops(key string) bool {
	if key == "" || key == UnknownKey {
		return true
	}
	if f.MinIDDigits > 0 && leadingDigits(key) >= f.MinIDDigits {
		return true
	}
	if len(f.Substrings) == 0 {
		return false
	}
	folded := cases.Fold().String(key)
	for _, s := range f.Substrings {
		if s == "" {
			continue
		}
		if strings.Contains(folded, cases.Fold().String(s)) {
			return true
		}
	}
	return false
}

func leadingDigits(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}
