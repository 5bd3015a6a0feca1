package scene

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/df07/go-uv-exposure/pkg/core"
	"github.com/df07/go-uv-exposure/pkg/geometry"
	"github.com/df07/go-uv-exposure/pkg/lights"
)

// Scene is the enclosure a simulation runs in: boundary triangles wound so
// their front faces look into the occupied volume, and the UV lights in it
type Scene struct {
	Name      string
	Triangles []*geometry.Triangle
	Lights    []lights.Light
}

// New creates an empty named scene
func New(name string) *Scene {
	return &Scene{Name: name}
}

// AddTriangle appends a triangle built from three vertices
func (s *Scene) AddTriangle(v0, v1, v2 core.Vec3, reflectivity float64) error {
	tri, err := geometry.NewTriangle(v0, v1, v2, reflectivity)
	if err != nil {
		return err
	}
	s.Triangles = append(s.Triangles, tri)
	return nil
}

// AddQuad appends the parallelogram corner, corner+u, corner+u+v, corner+v
// as two triangles. The front face looks along u × v.
func (s *Scene) AddQuad(corner, u, v core.Vec3, reflectivity float64) error {
	c1 := corner.Add(u)
	c2 := corner.Add(u).Add(v)
	c3 := corner.Add(v)
	if err := s.AddTriangle(corner, c1, c2, reflectivity); err != nil {
		return err
	}
	return s.AddTriangle(corner, c2, c3, reflectivity)
}

// BoxFaces selects faces of an axis-aligned box
type BoxFaces uint8

const (
	FaceBottom BoxFaces = 1 << iota // y = min
	FaceTop                         // y = max
	FaceMinX
	FaceMaxX
	FaceMinZ
	FaceMaxZ

	AllFaces = FaceBottom | FaceTop | FaceMinX | FaceMaxX | FaceMinZ | FaceMaxZ
)

// AddBox appends the six faces of an axis-aligned box. Inward boxes are
// rooms seen from inside; outward boxes are solid obstacles.
func (s *Scene) AddBox(min, max core.Vec3, inward bool, reflectivity float64) error {
	return s.AddBoxFaces(min, max, inward, reflectivity, AllFaces)
}

// AddBoxFaces appends the selected faces of an axis-aligned box. Obstacles
// standing on a floor leave out FaceBottom: that face would sit in the floor
// plane facing down, and points sampled on it end up below the floor.
func (s *Scene) AddBoxFaces(min, max core.Vec3, inward bool, reflectivity float64, mask BoxFaces) error {
	d := max.Subtract(min)
	x := core.NewVec3(d.X, 0, 0)
	y := core.NewVec3(0, d.Y, 0)
	z := core.NewVec3(0, 0, d.Z)

	// Each face is listed with u × v pointing out of the box
	faces := []struct {
		face         BoxFaces
		corner, u, v core.Vec3
	}{
		{FaceBottom, min, x, z},
		{FaceTop, core.NewVec3(min.X, max.Y, min.Z), z, x},
		{FaceMinX, min, z, y},
		{FaceMaxX, core.NewVec3(max.X, min.Y, min.Z), y, z},
		{FaceMinZ, min, y, x},
		{FaceMaxZ, core.NewVec3(min.X, min.Y, max.Z), x, y},
	}

	for _, f := range faces {
		if mask&f.face == 0 {
			continue
		}
		u, v := f.u, f.v
		if inward {
			u, v = v, u
		}
		if err := s.AddQuad(f.corner, u, v, reflectivity); err != nil {
			return err
		}
	}
	return nil
}

// AddLight appends an isotropic point light
func (s *Scene) AddLight(position core.Vec3, intensity float64) error {
	l, err := lights.New(position, intensity)
	if err != nil {
		return err
	}
	s.Lights = append(s.Lights, l)
	return nil
}

// Validate checks that the scene can be simulated
func (s *Scene) Validate() error {
	if len(s.Triangles) == 0 {
		return errors.New("scene has no triangles").
			WithType(core.ErrTypeEmptyMesh).
			WithTag("scene", s.Name)
	}
	for i, tri := range s.Triangles {
		if tri == nil {
			return errors.New("scene has a nil triangle").
				WithType(core.ErrTypeInvalidGeometry).
				WithTag("scene", s.Name).
				WithTag("index", i)
		}
		if err := tri.Validate(); err != nil {
			return errors.New("scene has an invalid triangle").
				WithType(core.ErrTypeInvalidGeometry).
				WithTag("scene", s.Name).
				WithTag("index", i).
				Wrap(err)
		}
	}
	for i, l := range s.Lights {
		if err := l.Validate(); err != nil {
			return errors.New("scene has an invalid light").
				WithType(core.ErrTypeInvalidGeometry).
				WithTag("scene", s.Name).
				WithTag("light", i).
				Wrap(err)
		}
	}
	return nil
}

// Bounds returns the box enclosing every triangle
func (s *Scene) Bounds() core.AABB {
	var bounds core.AABB
	for i, tri := range s.Triangles {
		if i == 0 {
			bounds = tri.BoundingBox()
			continue
		}
		bounds = bounds.Union(tri.BoundingBox())
	}
	return bounds
}

// TotalArea returns the summed area of every triangle
func (s *Scene) TotalArea() float64 {
	total := 0.0
	for _, tri := range s.Triangles {
		total += tri.Area()
	}
	return total
}
