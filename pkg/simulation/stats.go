package simulation

import "math"

// Summary contains aggregate statistics over a run's measurement points
type Summary struct {
	Points       int     `json:"points"`       // Number of points evaluated
	MeanDirect   float64 `json:"meanDirect"`   // Average direct intensity
	MeanIndirect float64 `json:"meanIndirect"` // Average indirect intensity
	MeanTotal    float64 `json:"meanTotal"`    // Average total intensity
	MinTotal     float64 `json:"minTotal"`     // Lowest total intensity at any point
	MaxTotal     float64 `json:"maxTotal"`     // Highest total intensity at any point
	Unexposed    int     `json:"unexposed"`    // Points with zero total intensity
}

// Summarize aggregates point results
func Summarize(points []PointResult) Summary {
	s := Summary{Points: len(points)}
	if len(points) == 0 {
		return s
	}

	s.MinTotal = math.Inf(1)
	s.MaxTotal = math.Inf(-1)
	for _, p := range points {
		s.MeanDirect += p.DirectIntensity
		s.MeanIndirect += p.IndirectIntensity
		s.MeanTotal += p.TotalIntensity
		s.MinTotal = math.Min(s.MinTotal, p.TotalIntensity)
		s.MaxTotal = math.Max(s.MaxTotal, p.TotalIntensity)
		if p.TotalIntensity == 0 {
			s.Unexposed++
		}
	}

	n := float64(len(points))
	s.MeanDirect /= n
	s.MeanIndirect /= n
	s.MeanTotal /= n
	return s
}

// IndirectFraction returns the share of the mean total intensity that
// arrived through reflections
func (s Summary) IndirectFraction() float64 {
	if s.MeanTotal == 0 {
		return 0
	}
	return s.MeanIndirect / s.MeanTotal
}
