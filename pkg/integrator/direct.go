package integrator

import (
	"math"

	"github.com/df07/go-uv-exposure/pkg/core"
	"github.com/df07/go-uv-exposure/pkg/lights"
	"github.com/df07/go-uv-exposure/pkg/tracer"
)

// DirectCalculator computes the unscattered irradiance lights deliver to a
// point, honoring occlusion by the scene geometry
type DirectCalculator struct {
	tracer *tracer.Tracer
}

// NewDirectCalculator creates a direct intensity calculator backed by tracer
func NewDirectCalculator(t *tracer.Tracer) *DirectCalculator {
	return &DirectCalculator{tracer: t}
}

// IntensityAt sums I / (4π d²) over every light with a clear path to point.
// Profiled lights are scaled by their relative output toward the point.
func (dc *DirectCalculator) IntensityAt(point core.Vec3, ls []lights.Light) float64 {
	total := 0.0
	for _, light := range ls {
		total += dc.Contribution(point, light)
	}
	return total
}

// Contribution returns the direct intensity a single light adds at point
func (dc *DirectCalculator) Contribution(point core.Vec3, light lights.Light) float64 {
	toLight := light.Position.Subtract(point)
	dist := toLight.Length()
	if dist < tracer.Epsilon {
		return 0
	}
	if !dc.tracer.IsPathClear(point, light.Position) {
		return 0
	}

	// Inverse square law for a point source
	intensity := light.Intensity / (4 * math.Pi * dist * dist)
	return intensity * light.Relative(toLight.Negate())
}
