package integrator

import (
	"math"

	"github.com/df07/go-uv-exposure/pkg/core"
	"github.com/df07/go-uv-exposure/pkg/geometry"
	"github.com/df07/go-uv-exposure/pkg/lights"
	"github.com/df07/go-uv-exposure/pkg/spatial"
	"github.com/df07/go-uv-exposure/pkg/tracer"
)

const (
	// photonBatchSize is the number of photons one worker task traces
	photonBatchSize = 2048
	// lowReflectivity is the reflectivity below which a bounce plays roulette
	lowReflectivity = 0.1
)

// PhotonConfig controls indirect transport
type PhotonConfig struct {
	PhotonsPerLight      int     // Photons emitted per light, 0 disables indirect light
	MaxBounces           int     // Surface hits traced per photon, 0 disables indirect light
	KernelRadius         float64 // Deposit radius around each hit
	RouletteThreshold    float64 // Flux below which energy roulette runs, in (0, 1]
	EnergyRoulette       bool    // Enable low-energy Russian roulette
	ReflectivityRoulette bool    // Enable low-reflectivity Russian roulette
	BounceOffset         float64 // Distance scattered rays start off the surface
	Workers              int     // Goroutines tracing batches, <= 0 uses NumCPU
	Seed                 int64   // Base seed; batch n uses core.StreamSeed(Seed, n)
}

// DefaultPhotonConfig returns the settings used when none are given
func DefaultPhotonConfig() PhotonConfig {
	return PhotonConfig{
		PhotonsPerLight:      10000,
		MaxBounces:           3,
		KernelRadius:         1,
		RouletteThreshold:    0.01,
		EnergyRoulette:       true,
		ReflectivityRoulette: true,
		BounceOffset:         1e-3,
		Seed:                 1,
	}
}

// Validate checks the config for values the tracer cannot work with
func (c PhotonConfig) Validate() error {
	if c.PhotonsPerLight < 0 {
		return core.ConfigError("photons_per_light", c.PhotonsPerLight, "photon count must not be negative")
	}
	if c.MaxBounces < 0 {
		return core.ConfigError("max_bounces", c.MaxBounces, "max bounces must not be negative")
	}
	if !(c.KernelRadius > 0) || math.IsInf(c.KernelRadius, 0) {
		return core.ConfigError("kernel_radius", c.KernelRadius, "kernel radius must be positive")
	}
	if !(c.RouletteThreshold > 0 && c.RouletteThreshold <= 1) {
		return core.ConfigError("roulette_threshold", c.RouletteThreshold, "roulette threshold must be in (0, 1]")
	}
	if !(c.BounceOffset >= 0) || math.IsInf(c.BounceOffset, 0) {
		return core.ConfigError("bounce_offset", c.BounceOffset, "bounce offset must not be negative")
	}
	return nil
}

// PhotonStats counts what happened to traced photons
type PhotonStats struct {
	Emitted              int     `json:"emitted"`
	Bounces              int     `json:"bounces"`
	Deposits             int     `json:"deposits"`
	DepositedFlux        float64 `json:"depositedFlux"`
	Escaped              int     `json:"escaped"`
	MaxBounces           int     `json:"maxBounces"`
	EnergyRoulette       int     `json:"energyRoulette"`
	ReflectivityRoulette int     `json:"reflectivityRoulette"`
	Absorbed             int     `json:"absorbed"`
}

// Add folds other into s
func (s *PhotonStats) Add(other PhotonStats) {
	s.Emitted += other.Emitted
	s.Bounces += other.Bounces
	s.Deposits += other.Deposits
	s.DepositedFlux += other.DepositedFlux
	s.Escaped += other.Escaped
	s.MaxBounces += other.MaxBounces
	s.EnergyRoulette += other.EnergyRoulette
	s.ReflectivityRoulette += other.ReflectivityRoulette
	s.Absorbed += other.Absorbed
}

// Terminated returns the number of photons that stopped for any reason
func (s PhotonStats) Terminated() int {
	return s.Escaped + s.MaxBounces + s.EnergyRoulette + s.ReflectivityRoulette + s.Absorbed
}

// termination records why a photon path ended
type termination int

const (
	terminatedEscaped termination = iota
	terminatedMaxBounces
	terminatedEnergyRoulette
	terminatedReflectivityRoulette
	terminatedAbsorbed
)

// photon is an energy packet in flight
type photon struct {
	ray     core.Ray
	flux    float64
	bounces int
}

// PhotonTracer estimates indirect irradiance at a fixed set of points by
// tracing energy packets from every light and smearing the flux each surface
// hit reflects over nearby points
type PhotonTracer struct {
	tracer *tracer.Tracer
	config PhotonConfig
}

// NewPhotonTracer validates config and creates a photon tracer
func NewPhotonTracer(t *tracer.Tracer, config PhotonConfig) (*PhotonTracer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &PhotonTracer{tracer: t, config: config}, nil
}

// Config returns the tracer's settings
func (pt *PhotonTracer) Config() PhotonConfig {
	return pt.config
}

// Trace emits photons from every light and returns the indirect intensity
// accumulated at each point, in the order given. The result is deterministic
// for a fixed seed regardless of the worker count.
func (pt *PhotonTracer) Trace(points []core.Vec3, ls []lights.Light) ([]float64, PhotonStats) {
	indirect, stats, _ := pt.trace(points, ls)
	return indirect, stats
}

// trace implements Trace and also reports how many batch accumulators were
// allocated, which never exceeds the worker count
func (pt *PhotonTracer) trace(points []core.Vec3, ls []lights.Light) ([]float64, PhotonStats, int) {
	indirect := make([]float64, len(points))
	var stats PhotonStats

	if len(points) == 0 || pt.config.PhotonsPerLight == 0 || pt.config.MaxBounces == 0 {
		return indirect, stats, 0
	}

	// Validated radius keeps this from failing
	index, err := spatial.NewPointGridFrom(points, pt.config.KernelRadius/2)
	if err != nil {
		return indirect, stats, 0
	}

	tasks := pt.batches(ls)
	if len(tasks) == 0 {
		return indirect, stats, 0
	}

	pool := newPhotonPool(pt.config.Workers, func(task photonTask) photonResult {
		return pt.traceBatch(task, ls, index)
	})
	accums := newAccumulatorPool(pool.numWorkers, len(points))

	pool.Start()
	go func() {
		// Tasks go out in ID order, so the lowest unmerged task always holds
		// an accumulator and the merge below cannot stall
		for _, task := range tasks {
			task.Accum = accums.get()
			pool.Submit(task)
		}
		pool.Stop()
	}()

	// Merge in task order so float summation is reproducible
	pending := make(map[int]photonResult, pool.numWorkers)
	next := 0
	for {
		result, ok := pool.Result()
		if !ok {
			break
		}
		pending[result.TaskID] = result

		for r, ready := pending[next]; ready; r, ready = pending[next] {
			for i, v := range r.Accum {
				indirect[i] += v
			}
			stats.Add(r.Stats)
			accums.put(r.Accum)
			delete(pending, next)
			next++
		}
	}

	return indirect, stats, accums.created
}

// batches splits every light's photons into fixed-size tasks
func (pt *PhotonTracer) batches(ls []lights.Light) []photonTask {
	var tasks []photonTask
	for li, light := range ls {
		if light.Intensity == 0 {
			continue
		}
		for start := 0; start < pt.config.PhotonsPerLight; start += photonBatchSize {
			count := min(photonBatchSize, pt.config.PhotonsPerLight-start)
			tasks = append(tasks, photonTask{
				TaskID: len(tasks),
				Light:  li,
				Start:  start,
				Count:  count,
			})
		}
	}
	return tasks
}

// traceBatch traces one batch into a private accumulator
func (pt *PhotonTracer) traceBatch(task photonTask, ls []lights.Light, index *spatial.PointGrid) photonResult {
	sampler := core.NewSeededSampler(core.StreamSeed(pt.config.Seed, task.TaskID))
	result := photonResult{
		TaskID: task.TaskID,
		Accum:  task.Accum,
	}

	light := ls[task.Light]
	flux := light.Intensity / float64(pt.config.PhotonsPerLight)

	for i := 0; i < task.Count; i++ {
		dir := core.SampleOnUnitSphere(sampler.Get2D())
		p := photon{
			ray:  core.NewRay(light.Position, dir),
			flux: flux * light.Relative(dir),
		}
		result.Stats.Emitted++
		if p.flux <= 0 {
			result.Stats.Absorbed++
			continue
		}

		switch pt.tracePhoton(&p, sampler, index, result.Accum, &result.Stats) {
		case terminatedEscaped:
			result.Stats.Escaped++
		case terminatedMaxBounces:
			result.Stats.MaxBounces++
		case terminatedEnergyRoulette:
			result.Stats.EnergyRoulette++
		case terminatedReflectivityRoulette:
			result.Stats.ReflectivityRoulette++
		case terminatedAbsorbed:
			result.Stats.Absorbed++
		}
	}

	return result
}

// tracePhoton follows a photon until it escapes, runs out of bounces or
// loses a roulette
func (pt *PhotonTracer) tracePhoton(p *photon, sampler core.Sampler, index *spatial.PointGrid, accum []float64, stats *PhotonStats) termination {
	triangles := pt.tracer.Triangles()

	for p.bounces < pt.config.MaxBounces {
		hit, idx, ok := pt.tracer.Nearest(p.ray, math.Inf(1))
		if !ok {
			return terminatedEscaped
		}
		p.bounces++
		stats.Bounces++

		tri := triangles[idx]
		p.flux *= tri.Reflectivity
		if p.flux <= 0 {
			return terminatedAbsorbed
		}

		stats.Deposits += deposit(index, hit.Point, p.flux, pt.config.KernelRadius, accum)
		stats.DepositedFlux += p.flux

		if pt.config.EnergyRoulette && p.flux < pt.config.RouletteThreshold {
			survival := p.flux / pt.config.RouletteThreshold
			if sampler.Get1D() > survival {
				return terminatedEnergyRoulette
			}
			p.flux /= survival
		}

		if pt.config.ReflectivityRoulette && tri.Reflectivity < lowReflectivity {
			if sampler.Get1D() > tri.Reflectivity {
				return terminatedReflectivityRoulette
			}
			p.flux /= tri.Reflectivity
		}

		p.ray = scatter(hit, tri, sampler, pt.config.BounceOffset)
	}

	return terminatedMaxBounces
}

// deposit spreads flux over the points within radius of at using the cone
// kernel 3(1 - d/r) / (π r²), which integrates to flux over the disk. It
// returns the number of points that received energy.
func deposit(index *spatial.PointGrid, at core.Vec3, flux, radius float64, accum []float64) int {
	norm := flux * 3 / (math.Pi * radius * radius)
	count := 0
	index.Within(at, radius, func(idx int, dist float64) bool {
		accum[idx] += norm * (1 - dist/radius)
		count++
		return true
	})
	return count
}

// scatter draws a cosine-weighted diffuse direction about the triangle normal
// and starts the next ray just off the surface
func scatter(hit geometry.Hit, tri *geometry.Triangle, sampler core.Sampler, offset float64) core.Ray {
	normal := tri.Normal()
	dir := core.SampleCosineHemisphere(normal, sampler.Get2D())
	for dir.LengthSquared() < 1e-20 {
		dir = core.SampleCosineHemisphere(normal, sampler.Get2D())
	}
	return core.NewRay(hit.Point.Add(normal.Multiply(offset)), dir)
}
