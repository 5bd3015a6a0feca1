package simulation

import (
	"math"
	"runtime"

	"github.com/df07/go-uv-exposure/pkg/core"
	"github.com/df07/go-uv-exposure/pkg/integrator"
	"github.com/df07/go-uv-exposure/pkg/sampler"
	"github.com/df07/go-uv-exposure/pkg/spatial"
)

// Config holds every setting of a simulation run
type Config struct {
	MaxBounces           int     `json:"maxBounces"`           // Surface hits traced per photon
	GridCellSize         float64 `json:"gridCellSize"`         // Edge length of triangle grid cells
	PhotonsPerLight      int     `json:"photonsPerLight"`      // Photons emitted per light
	RouletteThreshold    float64 `json:"rouletteThreshold"`    // Flux below which energy roulette runs
	KernelRadius         float64 `json:"kernelRadius"`         // Photon deposit radius
	SurfaceOffset        float64 `json:"surfaceOffset"`        // Distance sample points sit off the surface
	NumSamplePoints      int     `json:"numSamplePoints"`      // Measurement points to place
	DistanceThreshold    float64 `json:"distanceThreshold"`    // Minimum spacing between measurement points
	AttemptsMultiplier   int     `json:"attemptsMultiplier"`   // Candidate budget per requested point
	NormalSimilarity     float64 `json:"normalSimilarity"`     // Normal dot product for the spacing rule, 0 disables it
	EnergyRoulette       bool    `json:"energyRoulette"`       // Low-energy Russian roulette
	ReflectivityRoulette bool    `json:"reflectivityRoulette"` // Low-reflectivity Russian roulette
	BounceOffset         float64 `json:"bounceOffset"`         // Distance scattered photons start off the surface
	Traversal            string  `json:"traversal"`            // Grid traversal, "dda" or "stepped"
	Workers              int     `json:"workers"`              // Goroutines per parallel stage
	Seed                 int64   `json:"seed"`                 // Base seed of every random stream
	CheckWinding         bool    `json:"checkWinding"`         // Warn about points that see no light
}

// DefaultConfig returns the settings used when none are given
func DefaultConfig() Config {
	return Config{
		MaxBounces:           3,
		GridCellSize:         1,
		PhotonsPerLight:      10000,
		RouletteThreshold:    0.01,
		KernelRadius:         1,
		SurfaceOffset:        0.01,
		NumSamplePoints:      100,
		DistanceThreshold:    1,
		AttemptsMultiplier:   10,
		EnergyRoulette:       true,
		ReflectivityRoulette: true,
		BounceOffset:         1e-3,
		Traversal:            spatial.TraversalDDA.String(),
		Workers:              runtime.NumCPU(),
		Seed:                 1,
		CheckWinding:         true,
	}
}

// Validate checks every setting before any work starts
func (c Config) Validate() error {
	if !(c.GridCellSize > 0) || math.IsInf(c.GridCellSize, 0) {
		return core.ConfigError("grid_cell_size", c.GridCellSize, "grid cell size must be positive")
	}
	if _, err := spatial.ParseTraversal(c.Traversal); err != nil {
		return err
	}
	if err := c.PhotonConfig().Validate(); err != nil {
		return err
	}
	return c.SamplerOptions().Validate()
}

// PhotonConfig returns the photon tracer settings
func (c Config) PhotonConfig() integrator.PhotonConfig {
	return integrator.PhotonConfig{
		PhotonsPerLight:      c.PhotonsPerLight,
		MaxBounces:           c.MaxBounces,
		KernelRadius:         c.KernelRadius,
		RouletteThreshold:    c.RouletteThreshold,
		EnergyRoulette:       c.EnergyRoulette,
		ReflectivityRoulette: c.ReflectivityRoulette,
		BounceOffset:         c.BounceOffset,
		Workers:              c.Workers,
		Seed:                 c.Seed,
	}
}

// SamplerOptions returns the measurement point settings
func (c Config) SamplerOptions() sampler.Options {
	return sampler.Options{
		NumPoints:          c.NumSamplePoints,
		DistanceThreshold:  c.DistanceThreshold,
		SurfaceOffset:      c.SurfaceOffset,
		AttemptsMultiplier: c.AttemptsMultiplier,
		NormalSimilarity:   c.NormalSimilarity,
	}
}

func (c Config) workers() int {
	if c.Workers <= 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}
