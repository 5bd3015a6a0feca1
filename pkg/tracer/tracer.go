package tracer

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/df07/go-uv-exposure/pkg/core"
	"github.com/df07/go-uv-exposure/pkg/geometry"
	"github.com/df07/go-uv-exposure/pkg/spatial"
)

// Epsilon is the distance tolerance for coincident points and for treating a
// hit as lying at the target rather than in front of it
const Epsilon = 1e-6

// Tracer answers visibility and nearest-hit queries against a triangle set
// indexed by a grid. It holds no mutable state and is safe for concurrent use.
type Tracer struct {
	triangles []*geometry.Triangle
	grid      *spatial.Grid
}

// New creates a tracer over triangles. The grid must have been built from the
// same slice so its indices resolve to the right triangles.
func New(triangles []*geometry.Triangle, grid *spatial.Grid) (*Tracer, error) {
	if grid == nil {
		return nil, errors.New("tracer needs a grid").
			WithType(core.ErrTypeInvalidConfig)
	}
	if grid.Len() != len(triangles) {
		return nil, errors.New("grid was built from a different triangle set").
			WithType(core.ErrTypeInvalidConfig).
			WithTag("grid_triangles", grid.Len()).
			WithTag("triangles", len(triangles))
	}
	return &Tracer{triangles: triangles, grid: grid}, nil
}

// Triangles returns the triangle set the tracer queries
func (t *Tracer) Triangles() []*geometry.Triangle {
	return t.triangles
}

// IsPathClear reports whether nothing front-facing blocks the segment from
// origin to target. Hits within Epsilon of the target do not count.
func (t *Tracer) IsPathClear(origin, target core.Vec3) bool {
	ray, dist := core.NewRayTo(origin, target)
	if dist < Epsilon {
		return true
	}

	for _, idx := range t.grid.Candidates(ray, dist) {
		hit := t.triangles[idx].Intersect(ray)
		if hit.Hit && hit.Distance < dist-Epsilon {
			return false
		}
	}
	return true
}

// Nearest returns the closest front-face hit along ray within maxDistance and
// the index of the triangle hit. An infinite maxDistance searches until the
// ray leaves the grid bounds.
func (t *Tracer) Nearest(ray core.Ray, maxDistance float64) (geometry.Hit, int, bool) {
	best := geometry.Hit{Distance: math.Inf(1)}
	bestIdx := -1

	for _, idx := range t.grid.Candidates(ray, maxDistance) {
		hit := t.triangles[idx].Intersect(ray)
		if !hit.Hit || hit.Distance > maxDistance {
			continue
		}
		// Equal distances resolve to the lower index so results do not depend
		// on candidate order
		if hit.Distance < best.Distance || (hit.Distance == best.Distance && int(idx) < bestIdx) {
			best = hit
			bestIdx = int(idx)
		}
	}

	if bestIdx < 0 {
		return geometry.Hit{}, -1, false
	}
	return best, bestIdx, true
}
