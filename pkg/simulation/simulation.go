package simulation

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/df07/go-uv-exposure/pkg/core"
	"github.com/df07/go-uv-exposure/pkg/integrator"
	"github.com/df07/go-uv-exposure/pkg/lights"
	"github.com/df07/go-uv-exposure/pkg/sampler"
	"github.com/df07/go-uv-exposure/pkg/scene"
	"github.com/df07/go-uv-exposure/pkg/spatial"
	"github.com/df07/go-uv-exposure/pkg/tracer"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// PointResult is the exposure estimate at one measurement point. Intensities
// are power per unit area.
type PointResult struct {
	Position          core.Vec3 `json:"position"`
	Normal            core.Vec3 `json:"normal"`
	DirectIntensity   float64   `json:"directIntensity"`
	IndirectIntensity float64   `json:"indirectIntensity"`
	TotalIntensity    float64   `json:"totalIntensity"`
}

// Result is the outcome of a simulation run
type Result struct {
	RunID      string                 `json:"runId"`
	Scene      string                 `json:"scene"`
	Points     []PointResult          `json:"points"`
	Photons    integrator.PhotonStats `json:"photons"`
	Summary    Summary                `json:"summary"`
	DarkPoints []int                  `json:"darkPoints,omitempty"` // Points no light reaches directly
	Elapsed    time.Duration          `json:"elapsed"`
}

// Run places measurement points on the scene surfaces and estimates direct
// and indirect exposure at each. When the sampler cannot place every
// requested point, the partial result is returned with an under_sampled error.
func Run(ctx context.Context, s *scene.Scene, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	ms, err := sampler.New(s.Triangles, core.NewSeededSampler(cfg.Seed))
	if err != nil {
		return nil, err
	}
	points, sampleErr := ms.MeasurementPoints(cfg.SamplerOptions())
	if sampleErr != nil && !errors.IsType(sampleErr, core.ErrTypeUnderSampled) {
		return nil, sampleErr
	}
	instrumentStage("sample", start)

	if sampleErr != nil {
		instrumentRunError(sampleErr)
		logs.Warn(sampleErr)
	}

	result, err := RunPoints(ctx, s, points, cfg)
	if err != nil {
		return nil, err
	}
	result.Elapsed = time.Since(start)
	return result, sampleErr
}

// RunPoints estimates exposure at caller-supplied points, such as a cross
// section, without sampling the surfaces
func RunPoints(ctx context.Context, s *scene.Scene, points []sampler.Point, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	runs.Inc()
	start := time.Now()
	result := &Result{
		RunID:  uuid.NewString(),
		Scene:  s.Name,
		Points: make([]PointResult, len(points)),
	}
	logger := logs.WithTag("run_id", result.RunID).
		WithTag("scene", s.Name)

	traversal, _ := spatial.ParseTraversal(cfg.Traversal)
	grid, err := spatial.NewGrid(s.Triangles, cfg.GridCellSize, spatial.WithTraversal(traversal))
	if err != nil {
		return nil, err
	}
	t, err := tracer.New(s.Triangles, grid)
	if err != nil {
		return nil, err
	}
	logger.
		WithTag("triangles", len(s.Triangles)).
		WithTag("cells", grid.CellCount()).
		WithTag("traversal", grid.Traversal().String()).
		WithTag("points", len(points)).
		WithTag("light_power", lights.TotalIntensity(s.Lights)).
		Info("simulation started")

	positions := sampler.Positions(points)
	for i, p := range points {
		result.Points[i].Position = p.Position
		result.Points[i].Normal = p.Normal
	}

	stageStart := time.Now()
	direct, err := directIntensities(ctx, t, positions, s, cfg.workers())
	if err != nil {
		instrumentRunError(err)
		return nil, err
	}
	instrumentStage("direct", stageStart)

	if err := ctx.Err(); err != nil {
		return nil, errors.New("simulation cancelled").Wrap(err)
	}

	stageStart = time.Now()
	pt, err := integrator.NewPhotonTracer(t, cfg.PhotonConfig())
	if err != nil {
		return nil, err
	}
	indirect, stats := pt.Trace(positions, s.Lights)
	result.Photons = stats
	instrumentPhotons(stats)
	instrumentStage("photons", stageStart)

	for i := range result.Points {
		result.Points[i].DirectIntensity = direct[i]
		result.Points[i].IndirectIntensity = indirect[i]
		result.Points[i].TotalIntensity = direct[i] + indirect[i]
	}
	samplePoints.Add(float64(len(points)))

	if cfg.CheckWinding {
		result.DarkPoints = scene.DarkPoints(t, positions, s.Lights)
		// Shadowed points land here as well as points behind inverted
		// triangles, so this is a hint rather than a failure
		if n := len(result.DarkPoints); n > 0 {
			logger.
				WithTag("dark_points", n).
				Info("sample points see no light")
		}
	}

	result.Summary = Summarize(result.Points)
	result.Elapsed = time.Since(start)

	logger.
		WithTag("photons", stats.Emitted).
		WithTag("deposits", stats.Deposits).
		WithTag("mean_total_intensity", result.Summary.MeanTotal).
		WithTag("elapsed", result.Elapsed).
		Info("simulation finished")

	return result, nil
}

// directIntensities evaluates every point on a bounded pool of goroutines
func directIntensities(ctx context.Context, t *tracer.Tracer, points []core.Vec3, s *scene.Scene, workers int) ([]float64, error) {
	dc := integrator.NewDirectCalculator(t)
	direct := make([]float64, len(points))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, p := range points {
		if gctx.Err() != nil {
			break
		}
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return errors.New("simulation cancelled").Wrap(err)
			}
			direct[i] = dc.IntensityAt(p, s.Lights)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.New("simulation cancelled").Wrap(err)
	}
	return direct, nil
}
