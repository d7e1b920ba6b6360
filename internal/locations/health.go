package locations

import "math"

// Health labels.
const (
	HealthHealthy      = "Healthy"
	HealthAttention    = "Needs attention"
	HealthCritical     = "Critical"
	HealthInsufficient = "Insufficient data"
)

// HealthPolicy scores a location from its average rating and how many
// ratings back that average.
type HealthPolicy struct {
	RatingWeight  float64 `yaml:"rating_weight"`  // points for a 5.0 average
	VolumeDivisor float64 `yaml:"volume_divisor"` // ratings per volume point
	VolumeCap     float64 `yaml:"volume_cap"`     // max volume points
	HealthyAt     int     `yaml:"healthy_at"`
	AttentionAt   int     `yaml:"attention_at"`
}

// DefaultHealthPolicy weights rating quality at 85 points and volume at up
// to 15.
func DefaultHealthPolicy() HealthPolicy {
	return HealthPolicy{
		RatingWeight:  85,
		VolumeDivisor: 10,
		VolumeCap:     15,
		HealthyAt:     75,
		AttentionAt:   55,
	}
}

// Score returns a 0 to 100 health score. A nil average scores 0, which
// callers must read as insufficient data.
func (p HealthPolicy) Score(avg *float64, rated int) int {
	if avg == nil {
		return 0
	}
	volume := 0.0
	if p.VolumeDivisor > 0 {
		volume = math.Min(p.VolumeCap, float64(rated)/p.VolumeDivisor)
	}
	score := roundHalfUp((*avg/5)*p.RatingWeight + volume)
	return int(math.Max(0, math.Min(100, score)))
}

// Label names the band a score falls in.
func (p HealthPolicy) Label(avg *float64, score int) string {
	switch {
	case avg == nil:
		return HealthInsufficient
	case score >= p.HealthyAt:
		return HealthHealthy
	case score >= p.AttentionAt:
		return HealthAttention
	default:
		return HealthCritical
	}
}
