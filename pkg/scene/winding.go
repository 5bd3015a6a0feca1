package scene

import (
	"github.com/df07/go-uv-exposure/pkg/core"
	"github.com/df07/go-uv-exposure/pkg/geometry"
	"github.com/df07/go-uv-exposure/pkg/lights"
	"github.com/df07/go-uv-exposure/pkg/tracer"
)

// FacesToward reports whether the front face of tri looks at point
func FacesToward(tri *geometry.Triangle, point core.Vec3) bool {
	return tri.Normal().Dot(point.Subtract(tri.Center())) > 0
}

// Flipped returns a copy of tri with reversed winding, so its front face
// looks the other way
func Flipped(tri *geometry.Triangle) *geometry.Triangle {
	// Reflectivity was already validated, so this cannot fail
	flipped, _ := geometry.NewTriangle(tri.V0, tri.V2, tri.V1, tri.Reflectivity)
	return flipped
}

// SeesAnyLight reports whether point has a clear path to at least one light
func SeesAnyLight(t *tracer.Tracer, point core.Vec3, ls []lights.Light) bool {
	for _, l := range ls {
		if t.IsPathClear(point, l.Position) {
			return true
		}
	}
	return false
}

// DarkPoints returns the indices of points that see no light at all. In a
// closed room this usually means the surface they were sampled on is wound
// the wrong way and the points sit outside the occupied volume.
func DarkPoints(t *tracer.Tracer, points []core.Vec3, ls []lights.Light) []int {
	if len(ls) == 0 {
		return nil
	}
	var dark []int
	for i, p := range points {
		if !SeesAnyLight(t, p, ls) {
			dark = append(dark, i)
		}
	}
	return dark
}
