package locations

import "math"

// roundHalfUp rounds to the nearest integer with halves going up, so 2.5
// becomes 3 and 84.5 becomes 85.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

func round1(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}
