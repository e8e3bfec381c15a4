// Package score holds the experience-point weighting formula.
//
// The formula is the single source of truth for XP: lifetime scores and
// period-progress scores both call XP, the latter on deltas, so the weighting
// can never drift between the two.
package score

// Weights per counted unit.
const (
	WeightJobApplied = 0.5
	WeightEasy       = 1.0
	WeightMedium     = 2.0
	WeightHard       = 4.0
)

// XP computes the weighted experience score.
func XP(jobsApplied, easy, medium, hard int) float64 {
	return WeightJobApplied*float64(jobsApplied) +
		WeightEasy*float64(easy) +
		WeightMedium*float64(medium) +
		WeightHard*float64(hard)
}
