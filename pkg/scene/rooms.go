package scene

import (
	"github.com/df07/go-uv-exposure/pkg/core"
	"github.com/df07/go-uv-exposure/pkg/lights"
)

// DefaultReflectivity is the UV reflectivity used for plain painted surfaces
const DefaultReflectivity = 0.5

// NewSimpleRoom creates a 10×10×10 room with a 2×2×2 block hovering at its
// center and a 1000 W lamp just under the ceiling
func NewSimpleRoom() (*Scene, error) {
	s := New("simple-room")

	if err := s.AddBox(core.NewVec3(0, 0, 0), core.NewVec3(10, 10, 10), true, DefaultReflectivity); err != nil {
		return nil, err
	}
	if err := s.AddBox(core.NewVec3(4, 4, 4), core.NewVec3(6, 6, 6), false, DefaultReflectivity); err != nil {
		return nil, err
	}
	if err := s.AddLight(core.NewVec3(5, 9.5, 5), 1000); err != nil {
		return nil, err
	}

	return s, nil
}

// NewFloor creates a single upward-facing 10×10 floor with a 1000 W lamp
// five units above its center
func NewFloor() (*Scene, error) {
	s := New("floor")

	// u = Z, v = X so the floor faces +Y
	if err := s.AddQuad(
		core.NewVec3(0, 0, 0),
		core.NewVec3(0, 0, 10),
		core.NewVec3(10, 0, 0),
		DefaultReflectivity,
	); err != nil {
		return nil, err
	}
	if err := s.AddLight(core.NewVec3(5, 5, 5), 1000); err != nil {
		return nil, err
	}

	return s, nil
}

// NewCornellRoom creates a 5.55 m Cornell-style room with a UV-absorbing
// left wall, a strongly reflecting right wall, two blocks on the floor and a
// downlight with a far-UVC beam profile under the ceiling
func NewCornellRoom() (*Scene, error) {
	s := New("cornell")
	size := 5.55

	white := 0.73
	absorbing := 0.05
	reflective := 0.85

	// Floor, ceiling and back wall
	if err := s.AddQuad(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, size), core.NewVec3(size, 0, 0), white); err != nil {
		return nil, err
	}
	if err := s.AddQuad(core.NewVec3(0, size, 0), core.NewVec3(size, 0, 0), core.NewVec3(0, 0, size), white); err != nil {
		return nil, err
	}
	if err := s.AddQuad(core.NewVec3(0, 0, size), core.NewVec3(0, size, 0), core.NewVec3(size, 0, 0), white); err != nil {
		return nil, err
	}
	// Open front at z=0 lets photons escape, like the camera side of the classic box

	// Left wall (x=0) absorbs, right wall (x=size) reflects
	if err := s.AddQuad(core.NewVec3(0, 0, 0), core.NewVec3(0, size, 0), core.NewVec3(0, 0, size), absorbing); err != nil {
		return nil, err
	}
	if err := s.AddQuad(core.NewVec3(size, 0, 0), core.NewVec3(0, 0, size), core.NewVec3(0, size, 0), reflective); err != nil {
		return nil, err
	}

	// Short and tall blocks stand on the floor, so they have no bottom
	standing := AllFaces &^ FaceBottom
	if err := s.AddBoxFaces(core.NewVec3(1.3, 0, 0.65), core.NewVec3(2.95, 1.65, 2.3), false, white, standing); err != nil {
		return nil, err
	}
	if err := s.AddBoxFaces(core.NewVec3(2.65, 0, 2.95), core.NewVec3(4.3, 3.3, 4.6), false, white, standing); err != nil {
		return nil, err
	}

	profile, err := lights.NewProfile("far-uvc downlight", 222, map[int]float64{
		0:  100,
		15: 95,
		30: 80,
		45: 55,
		60: 25,
		75: 8,
		90: 0,
	}, 0)
	if err != nil {
		return nil, err
	}
	lamp, err := lights.NewWithProfile(
		core.NewVec3(size/2, size-0.05, size/2),
		500,
		core.NewVec3(0, -1, 0),
		profile,
	)
	if err != nil {
		return nil, err
	}
	s.Lights = append(s.Lights, lamp)

	return s, nil
}
