package integrator

import (
	"math"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/df07/go-uv-exposure/pkg/core"
	"github.com/df07/go-uv-exposure/pkg/lights"
	"github.com/df07/go-uv-exposure/pkg/scene"
	"github.com/df07/go-uv-exposure/pkg/spatial"
	"github.com/stretchr/testify/require"
)

// closedRoom returns a 10³ room with uniform reflectivity and a lamp at its center
func closedRoom(t *testing.T, reflectivity, intensity float64) *scene.Scene {
	t.Helper()
	s := scene.New("closed")
	require.NoError(t, s.AddBox(core.NewVec3(0, 0, 0), core.NewVec3(10, 10, 10), true, reflectivity))
	require.NoError(t, s.AddLight(core.NewVec3(5, 5, 5), intensity))
	return s
}

func roomPoints() []core.Vec3 {
	var points []core.Vec3
	for x := 1.0; x < 10; x += 2 {
		for z := 1.0; z < 10; z += 2 {
			points = append(points, core.NewVec3(x, 0.01, z), core.NewVec3(x, 9.99, z))
		}
	}
	return points
}

func TestPhotonConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*PhotonConfig)
	}{
		{"zero kernel radius", func(c *PhotonConfig) { c.KernelRadius = 0 }},
		{"negative kernel radius", func(c *PhotonConfig) { c.KernelRadius = -1 }},
		{"zero roulette threshold", func(c *PhotonConfig) { c.RouletteThreshold = 0 }},
		{"roulette threshold above one", func(c *PhotonConfig) { c.RouletteThreshold = 1.5 }},
		{"nan roulette threshold", func(c *PhotonConfig) { c.RouletteThreshold = math.NaN() }},
		{"negative photons", func(c *PhotonConfig) { c.PhotonsPerLight = -1 }},
		{"negative bounces", func(c *PhotonConfig) { c.MaxBounces = -1 }},
		{"negative bounce offset", func(c *PhotonConfig) { c.BounceOffset = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPhotonConfig()
			tt.modify(&cfg)
			_, err := NewPhotonTracer(nil, cfg)
			require.Error(t, err)
			require.True(t, errors.IsType(err, core.ErrTypeInvalidConfig))
		})
	}

	cfg := DefaultPhotonConfig()
	cfg.RouletteThreshold = 1
	require.NoError(t, cfg.Validate())
}

func TestTrace_NothingToDo(t *testing.T) {
	s := closedRoom(t, 0.5, 100)
	tr := newTracer(t, s.Triangles)
	points := roomPoints()

	for name, modify := range map[string]func(*PhotonConfig){
		"zero photons": func(c *PhotonConfig) { c.PhotonsPerLight = 0 },
		"zero bounces": func(c *PhotonConfig) { c.MaxBounces = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultPhotonConfig()
			modify(&cfg)
			pt, err := NewPhotonTracer(tr, cfg)
			require.NoError(t, err)

			indirect, stats := pt.Trace(points, s.Lights)
			require.Len(t, indirect, len(points))
			for _, v := range indirect {
				require.Equal(t, 0.0, v)
			}
			require.Equal(t, PhotonStats{}, stats)
		})
	}

	pt, err := NewPhotonTracer(tr, DefaultPhotonConfig())
	require.NoError(t, err)
	indirect, _ := pt.Trace(nil, s.Lights)
	require.Empty(t, indirect)
}

func TestTrace_ClosedRoomEnergy(t *testing.T) {
	const (
		reflectivity = 0.5
		intensity    = 100.0
	)
	s := closedRoom(t, reflectivity, intensity)
	tr := newTracer(t, s.Triangles)

	cfg := DefaultPhotonConfig()
	cfg.PhotonsPerLight = 5000
	cfg.MaxBounces = 3
	cfg.EnergyRoulette = false
	cfg.ReflectivityRoulette = false
	pt, err := NewPhotonTracer(tr, cfg)
	require.NoError(t, err)

	indirect, stats := pt.Trace(roomPoints(), s.Lights)

	// Without roulette every photon deposits ρ, ρ², ρ³ of its flux
	expected := intensity * (reflectivity + reflectivity*reflectivity + math.Pow(reflectivity, 3))
	require.InEpsilon(t, expected, stats.DepositedFlux, 1e-3)
	require.Equal(t, cfg.PhotonsPerLight, stats.Emitted)
	require.Equal(t, stats.Emitted, stats.Terminated())
	require.InEpsilon(t, float64(stats.Emitted), float64(stats.MaxBounces), 1e-3)
	require.InEpsilon(t, float64(3*stats.Emitted), float64(stats.Bounces), 1e-3)

	for i, v := range indirect {
		require.Greater(t, v, 0.0, "point %d received nothing", i)
	}
}

func TestTrace_RouletteUnbiased(t *testing.T) {
	tests := []struct {
		name         string
		reflectivity float64
		threshold    float64
		energy       bool
		albedo       bool
	}{
		{"energy roulette", 0.5, 0.01, true, false},
		{"reflectivity roulette", 0.05, 0.01, false, true},
		{"both", 0.05, 0.01, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const intensity = 100.0
			s := closedRoom(t, tt.reflectivity, intensity)
			tr := newTracer(t, s.Triangles)

			cfg := DefaultPhotonConfig()
			cfg.PhotonsPerLight = 40000
			cfg.MaxBounces = 3
			cfg.RouletteThreshold = tt.threshold
			cfg.EnergyRoulette = tt.energy
			cfg.ReflectivityRoulette = tt.albedo
			cfg.Seed = 7

			pt, err := NewPhotonTracer(tr, cfg)
			require.NoError(t, err)
			_, withRoulette := pt.Trace(roomPoints(), s.Lights)

			cfg.EnergyRoulette = false
			cfg.ReflectivityRoulette = false
			pt, err = NewPhotonTracer(tr, cfg)
			require.NoError(t, err)
			_, without := pt.Trace(roomPoints(), s.Lights)

			r := tt.reflectivity
			expected := intensity * (r + r*r + r*r*r)
			require.InEpsilon(t, expected, without.DepositedFlux, 1e-3)
			require.InEpsilon(t, expected, withRoulette.DepositedFlux, 0.04)

			// Roulette actually fired
			require.Greater(t, withRoulette.EnergyRoulette+withRoulette.ReflectivityRoulette, 0)
			require.Less(t, withRoulette.Bounces, without.Bounces)
		})
	}
}

func TestTrace_DeterministicAcrossWorkers(t *testing.T) {
	s, err := scene.NewSimpleRoom()
	require.NoError(t, err)
	tr := newTracer(t, s.Triangles)
	points := roomPoints()

	run := func(workers int) ([]float64, PhotonStats) {
		cfg := DefaultPhotonConfig()
		cfg.PhotonsPerLight = 5000
		cfg.Workers = workers
		cfg.Seed = 12
		pt, err := NewPhotonTracer(tr, cfg)
		require.NoError(t, err)
		return pt.Trace(points, s.Lights)
	}

	a, statsA := run(1)
	b, statsB := run(4)
	require.Equal(t, a, b)
	require.Equal(t, statsA, statsB)
}

func TestTrace_AccumulatorsBoundedByWorkers(t *testing.T) {
	s := closedRoom(t, 0.5, 100)
	tr := newTracer(t, s.Triangles)

	var points []core.Vec3
	for x := 0.5; x < 10; x += 0.5 {
		for z := 0.5; z < 10; z += 0.5 {
			points = append(points, core.NewVec3(x, 0.01, z))
		}
	}

	tests := []struct {
		name    string
		workers int
		photons int
	}{
		{"one worker", 1, 40 * photonBatchSize},
		{"three workers", 3, 40 * photonBatchSize},
		{"more workers than batches", 8, 3 * photonBatchSize},
	}
	var reference []float64
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPhotonConfig()
			cfg.PhotonsPerLight = tt.photons
			cfg.MaxBounces = 1
			cfg.Workers = tt.workers
			pt, err := NewPhotonTracer(tr, cfg)
			require.NoError(t, err)

			indirect, stats, accumulators := pt.trace(points, s.Lights)
			require.Equal(t, tt.photons, stats.Emitted)
			require.LessOrEqual(t, accumulators, tt.workers)
			require.Greater(t, accumulators, 0)

			// Recycled accumulators are cleared between batches
			if tt.photons == 40*photonBatchSize {
				if reference == nil {
					reference = indirect
				}
				require.Equal(t, reference, indirect)
			}
		})
	}
}

func TestTrace_BlackRoomAbsorbs(t *testing.T) {
	s := closedRoom(t, 0, 100)
	tr := newTracer(t, s.Triangles)

	cfg := DefaultPhotonConfig()
	cfg.PhotonsPerLight = 1000
	pt, err := NewPhotonTracer(tr, cfg)
	require.NoError(t, err)

	indirect, stats := pt.Trace(roomPoints(), s.Lights)
	for _, v := range indirect {
		require.Equal(t, 0.0, v)
	}
	require.Equal(t, 0.0, stats.DepositedFlux)
	require.InEpsilon(t, float64(stats.Emitted), float64(stats.Absorbed), 1e-3)
}

func TestTrace_OpenSceneEscapes(t *testing.T) {
	s, err := scene.NewFloor()
	require.NoError(t, err)
	tr := newTracer(t, s.Triangles)

	cfg := DefaultPhotonConfig()
	cfg.PhotonsPerLight = 4000
	cfg.EnergyRoulette = false
	cfg.ReflectivityRoulette = false
	pt, err := NewPhotonTracer(tr, cfg)
	require.NoError(t, err)

	_, stats := pt.Trace([]core.Vec3{core.NewVec3(5, 0.01, 5)}, s.Lights)

	// The 10×10 floor five units below the lamp subtends a sixth of the
	// sphere. Photons hitting it bounce once and then leave.
	require.Equal(t, stats.Emitted, stats.Escaped)
	require.InDelta(t, 1.0/6, float64(stats.Bounces)/float64(stats.Emitted), 0.03)
}

func TestDeposit_KernelIntegratesToFlux(t *testing.T) {
	const (
		h      = 0.02
		radius = 1.0
		flux   = 2.0
	)

	var points []core.Vec3
	for x := -1.2; x <= 1.2; x += h {
		for z := -1.2; z <= 1.2; z += h {
			points = append(points, core.NewVec3(x, 0, z))
		}
	}
	index, err := spatial.NewPointGridFrom(points, radius/2)
	require.NoError(t, err)

	accum := make([]float64, len(points))
	count := deposit(index, core.NewVec3(0, 0, 0), flux, radius, accum)
	require.Greater(t, count, 0)

	total := 0.0
	for i, v := range accum {
		if v > 0 {
			require.Less(t, points[i].Length(), radius)
		}
		total += v * h * h
	}
	require.InEpsilon(t, flux, total, 0.01)
}

func TestPhotonStats_Add(t *testing.T) {
	a := PhotonStats{Emitted: 2, Bounces: 3, Escaped: 1, Absorbed: 1, DepositedFlux: 0.5}
	a.Add(PhotonStats{Emitted: 1, MaxBounces: 1, DepositedFlux: 0.25})
	require.Equal(t, 3, a.Emitted)
	require.Equal(t, 3, a.Terminated())
	require.Equal(t, 0.75, a.DepositedFlux)
}

func TestTrace_ProfiledLight(t *testing.T) {
	s := closedRoom(t, 0.5, 0)
	tr := newTracer(t, s.Triangles)

	// Beam that only lights the lower hemisphere
	profile, err := lights.NewProfile("downlight", 222, map[int]float64{0: 1, 90: 0}, 0)
	require.NoError(t, err)
	lamp, err := lights.NewWithProfile(core.NewVec3(5, 5, 5), 100, core.NewVec3(0, -1, 0), profile)
	require.NoError(t, err)

	cfg := DefaultPhotonConfig()
	cfg.PhotonsPerLight = 4000
	cfg.MaxBounces = 1
	pt, err := NewPhotonTracer(tr, cfg)
	require.NoError(t, err)

	_, stats := pt.Trace(roomPoints(), []lights.Light{lamp})
	require.Equal(t, 4000, stats.Emitted)
	// Upward photons carry nothing and are dropped at emission
	require.InDelta(t, 0.5, float64(stats.Absorbed)/float64(stats.Emitted), 0.05)
}
