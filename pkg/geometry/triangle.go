package geometry

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/df07/go-uv-exposure/pkg/core"
)

const (
	// parallelEpsilon bounds |det| below which a ray lies in the triangle's plane
	parallelEpsilon = 1e-8
	// hitEpsilon is the minimum accepted hit distance along a ray
	hitEpsilon = 1e-6
)

// Triangle represents a single triangle defined by three vertices.
// Vertices are ordered counter-clockwise when viewed from the front side,
// the side light illuminates; the normal points toward that side.
type Triangle struct {
	V0, V1, V2   core.Vec3 // The three vertices
	Reflectivity float64   // Fraction of incident energy reflected, in [0, 1]
	normal       core.Vec3 // Cached normal vector
	area         float64   // Cached area
	bbox         core.AABB // Cached bounding box
}

// NewTriangle creates a new triangle from three vertices
func NewTriangle(v0, v1, v2 core.Vec3, reflectivity float64) (*Triangle, error) {
	t := &Triangle{
		V0:           v0,
		V1:           v1,
		V2:           v2,
		Reflectivity: reflectivity,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	// Precompute normal, area and bounding box once
	cross := v1.Subtract(v0).Cross(v2.Subtract(v0))
	t.normal = cross.Normalize()
	t.area = 0.5 * cross.Length()
	t.bbox = core.NewAABBFromPoints(v0, v1, v2)

	return t, nil
}

// Validate checks that the vertices are finite and the reflectivity is in
// [0, 1]. Fields are exported, so scenes re-check triangles before a run.
func (t *Triangle) Validate() error {
	if !t.V0.IsFinite() || !t.V1.IsFinite() || !t.V2.IsFinite() {
		return errors.New("triangle vertices must be finite").
			WithType(core.ErrTypeInvalidGeometry).
			WithTag("v0", t.V0).
			WithTag("v1", t.V1).
			WithTag("v2", t.V2)
	}
	if !(t.Reflectivity >= 0 && t.Reflectivity <= 1) {
		return errors.New("reflectivity must be in [0, 1]").
			WithType(core.ErrTypeInvalidGeometry).
			WithTag("reflectivity", t.Reflectivity)
	}
	return nil
}

// Normal returns the triangle's front-facing unit normal
func (t *Triangle) Normal() core.Vec3 {
	return t.normal
}

// Area returns the triangle's surface area
func (t *Triangle) Area() float64 {
	return t.area
}

// BoundingBox returns the axis-aligned bounding box for this triangle
func (t *Triangle) BoundingBox() core.AABB {
	return t.bbox
}

// Center returns the centroid of the triangle
func (t *Triangle) Center() core.Vec3 {
	return t.V0.Add(t.V1).Add(t.V2).Multiply(1.0 / 3.0)
}

// IsDegenerate reports whether the triangle has no usable area
func (t *Triangle) IsDegenerate() bool {
	return t.area < 1e-12
}

// Hit describes a ray-triangle intersection. Distance and Point are only
// meaningful when Hit is true.
type Hit struct {
	Hit      bool
	Distance float64
	Point    core.Vec3
}

// Intersect tests if a ray hits the front face of the triangle using the
// Möller-Trumbore algorithm. Hits on the back face are rejected.
func (t *Triangle) Intersect(ray core.Ray) Hit {
	// Calculate two edge vectors
	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)

	// Calculate determinant
	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	// If determinant is near zero, ray lies in plane of triangle
	if a > -parallelEpsilon && a < parallelEpsilon {
		return Hit{}
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(t.V0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return Hit{}
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return Hit{}
	}

	dist := f * edge2.Dot(q)
	if dist < hitEpsilon {
		return Hit{}
	}

	// Travelling with the normal means striking the back face
	if t.normal.Dot(ray.Direction) >= 0 {
		return Hit{}
	}

	return Hit{Hit: true, Distance: dist, Point: ray.At(dist)}
}
