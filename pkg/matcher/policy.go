package matcher

import "math"

const (
	DefaultBaseThreshold   = 0.65
	DefaultDetectionWeight = 0.1
)

// Policy is the acceptance rule applied to the best ranked match. A capture
// with low detector confidence is allowed a lower bar, by at most
// DetectionWeight.
type Policy struct {
	BaseThreshold   float64
	DetectionWeight float64
}

func DefaultPolicy() Policy {
	return Policy{
		BaseThreshold:   DefaultBaseThreshold,
		DetectionWeight: DefaultDetectionWeight,
	}
}

// Threshold returns base - weight * (1 - detectionScore). Scores outside
// [0, 1] are clamped first.
func (p Policy) Threshold(detectionScore float64) float64 {
	ds := detectionScore
	if math.IsNaN(ds) {
		ds = 0
	}
	ds = math.Max(0, math.Min(1, ds))
	return p.BaseThreshold - p.DetectionWeight*(1-ds)
}

func (p Policy) Accept(best Match, detectionScore float64) bool {
	return best.Score >= p.Threshold(detectionScore)
}

// Best returns the first match and whether it clears the threshold.
func (p Policy) Best(matches []Match, detectionScore float64) (Match, bool) {
	if len(matches) == 0 {
		return Match{}, false
	}
	return matches[0], p.Accept(matches[0], detectionScore)
}
