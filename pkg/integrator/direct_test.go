package integrator

import (
	"math"
	"testing"

	"github.com/df07/go-uv-exposure/pkg/core"
	"github.com/df07/go-uv-exposure/pkg/geometry"
	"github.com/df07/go-uv-exposure/pkg/lights"
	"github.com/df07/go-uv-exposure/pkg/scene"
	"github.com/df07/go-uv-exposure/pkg/spatial"
	"github.com/df07/go-uv-exposure/pkg/tracer"
	"github.com/stretchr/testify/require"
)

func newTracer(t *testing.T, tris []*geometry.Triangle) *tracer.Tracer {
	t.Helper()
	grid, err := spatial.NewGrid(tris, 1)
	require.NoError(t, err)
	tr, err := tracer.New(tris, grid)
	require.NoError(t, err)
	return tr
}

func TestDirect_FloorExample(t *testing.T) {
	s, err := scene.NewFloor()
	require.NoError(t, err)

	light, err := lights.New(core.NewVec3(5, 5, 5), 1000)
	require.NoError(t, err)

	dc := NewDirectCalculator(newTracer(t, s.Triangles))
	got := dc.IntensityAt(core.NewVec3(5, 0.01, 5), []lights.Light{light})

	require.InDelta(t, 1000/(4*math.Pi*4.99*4.99), got, 1e-9)
	require.InDelta(t, 3.19, got, 0.01)
}

func TestDirect_Occlusion(t *testing.T) {
	s, err := scene.NewFloor()
	require.NoError(t, err)

	// Downward-facing plate halfway between the floor and the lamp
	require.NoError(t, s.AddQuad(core.NewVec3(4, 2.5, 4), core.NewVec3(2, 0, 0), core.NewVec3(0, 0, 2), 0.5))

	dc := NewDirectCalculator(newTracer(t, s.Triangles))
	point := core.NewVec3(5, 0.01, 5)
	require.Equal(t, 0.0, dc.IntensityAt(point, s.Lights))

	// A second, unblocked lamp still contributes
	side, err := lights.New(core.NewVec3(9, 3, 9), 200)
	require.NoError(t, err)
	d := side.Position.Distance(point)
	require.InDelta(t, 200/(4*math.Pi*d*d), dc.IntensityAt(point, append(s.Lights, side)), 1e-12)
}

func TestDirect_CoincidentAndSummed(t *testing.T) {
	s, err := scene.NewFloor()
	require.NoError(t, err)
	dc := NewDirectCalculator(newTracer(t, s.Triangles))

	a, _ := lights.New(core.NewVec3(2, 4, 2), 100)
	b, _ := lights.New(core.NewVec3(8, 4, 8), 300)
	point := core.NewVec3(2, 4, 2)

	// The coincident lamp adds nothing
	d := b.Position.Distance(point)
	require.InDelta(t, 300/(4*math.Pi*d*d), dc.IntensityAt(point, []lights.Light{a, b}), 1e-12)
	require.Equal(t, 0.0, dc.IntensityAt(point, nil))
}

func TestDirect_ProfiledLight(t *testing.T) {
	s, err := scene.NewFloor()
	require.NoError(t, err)
	dc := NewDirectCalculator(newTracer(t, s.Triangles))

	profile, err := lights.NewProfile("test", 222, map[int]float64{0: 100, 45: 50, 90: 0}, 0)
	require.NoError(t, err)
	lamp, err := lights.NewWithProfile(core.NewVec3(5, 5, 5), 1000, core.NewVec3(0, -1, 0), profile)
	require.NoError(t, err)

	below := core.NewVec3(5, 0, 5)
	require.InDelta(t, 1000/(4*math.Pi*25), dc.Contribution(below, lamp), 1e-9)

	// 45° off axis gets half the forward output
	diagonal := core.NewVec3(10, 0, 5)
	d2 := diagonal.Subtract(lamp.Position).LengthSquared()
	require.InDelta(t, 0.5*1000/(4*math.Pi*d2), dc.Contribution(diagonal, lamp), 1e-9)
}
