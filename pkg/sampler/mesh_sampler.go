package sampler

import (
	"sort"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/df07/go-uv-exposure/pkg/core"
	"github.com/df07/go-uv-exposure/pkg/geometry"
	"github.com/df07/go-uv-exposure/pkg/spatial"
)

// Point is a measurement location just off a boundary surface
type Point struct {
	Position core.Vec3 `json:"position"`
	Normal   core.Vec3 `json:"normal"`
	Triangle int       `json:"triangle"` // Index of the source triangle, -1 when not sampled from one
}

// Options controls measurement point generation
type Options struct {
	NumPoints          int     // Points to return
	DistanceThreshold  float64 // Minimum spacing between accepted points
	SurfaceOffset      float64 // Distance points are pushed along the triangle normal
	AttemptsMultiplier int     // Candidate budget is NumPoints × AttemptsMultiplier
	NormalSimilarity   float64 // When > 0, close points are only rejected if their normals' dot product reaches this
}

// DefaultOptions returns the generation settings used when none are given
func DefaultOptions() Options {
	return Options{
		NumPoints:          100,
		DistanceThreshold:  1,
		SurfaceOffset:      0.01,
		AttemptsMultiplier: 10,
	}
}

// Validate checks the options for values the sampler cannot work with
func (o Options) Validate() error {
	if o.NumPoints <= 0 {
		return core.ConfigError("num_sample_points", o.NumPoints, "number of sample points must be positive")
	}
	if !(o.DistanceThreshold > 0) {
		return core.ConfigError("distance_threshold", o.DistanceThreshold, "distance threshold must be positive")
	}
	if !(o.SurfaceOffset >= 0) {
		return core.ConfigError("surface_offset", o.SurfaceOffset, "surface offset must not be negative")
	}
	if o.AttemptsMultiplier <= 0 {
		return core.ConfigError("attempts_multiplier", o.AttemptsMultiplier, "attempts multiplier must be positive")
	}
	if !(o.NormalSimilarity >= 0 && o.NormalSimilarity <= 1) {
		return core.ConfigError("normal_similarity", o.NormalSimilarity, "normal similarity must be in [0, 1]")
	}
	return nil
}

// MeshSampler draws area-uniform points on a triangle mesh. It trusts the
// mesh winding: points are offset along each triangle's normal, so a
// triangle wound the wrong way yields points on the wrong side.
//
// A MeshSampler is not safe for concurrent use because it owns its sampler.
type MeshSampler struct {
	triangles []*geometry.Triangle
	cdf       []float64 // cdf[i] is the summed area of triangles 0..i
	total     float64
	sampler   core.Sampler
}

// New precomputes the cumulative area table for triangles
func New(triangles []*geometry.Triangle, sampler core.Sampler) (*MeshSampler, error) {
	if len(triangles) == 0 {
		return nil, errors.New("cannot sample an empty mesh").
			WithType(core.ErrTypeEmptyMesh)
	}

	cdf := make([]float64, len(triangles))
	total := 0.0
	for i, tri := range triangles {
		total += tri.Area()
		cdf[i] = total
	}
	if !(total > 0) {
		return nil, errors.New("mesh has no surface area").
			WithType(core.ErrTypeEmptyMesh).
			WithTag("triangles", len(triangles))
	}

	return &MeshSampler{
		triangles: triangles,
		cdf:       cdf,
		total:     total,
		sampler:   sampler,
	}, nil
}

// TotalArea returns the summed area of the mesh
func (ms *MeshSampler) TotalArea() float64 {
	return ms.total
}

// PickTriangle returns the index of the triangle owning r ∈ [0, TotalArea)
// on the cumulative area table
func (ms *MeshSampler) PickTriangle(r float64) int {
	i := sort.Search(len(ms.cdf), func(i int) bool {
		return ms.cdf[i] > r
	})
	// r can reach the total through rounding
	if i == len(ms.cdf) {
		i--
	}
	return i
}

// pickLinear scans the table for the owning triangle
func pickLinear(cdf []float64, r float64) int {
	for i, c := range cdf {
		if c > r {
			return i
		}
	}
	return len(cdf) - 1
}

// SamplePoint draws a uniform point on triangle idx and moves it offset
// along the triangle's normal
func (ms *MeshSampler) SamplePoint(idx int, offset float64) Point {
	tri := ms.triangles[idx]
	p := core.SampleTriangle(tri.V0, tri.V1, tri.V2, ms.sampler.Get2D())
	return Point{
		Position: p.Add(tri.Normal().Multiply(offset)),
		Normal:   tri.Normal(),
		Triangle: idx,
	}
}

// next draws one area-weighted candidate
func (ms *MeshSampler) next(offset float64) Point {
	return ms.SamplePoint(ms.PickTriangle(ms.sampler.Get1D()*ms.total), offset)
}

// SurfacePoints draws n area-weighted points with no spacing constraint
func (ms *MeshSampler) SurfacePoints(n int, offset float64) ([]Point, error) {
	if n < 0 {
		return nil, core.ConfigError("num_points", n, "number of points must not be negative")
	}
	points := make([]Point, n)
	for i := range points {
		points[i] = ms.next(offset)
	}
	return points, nil
}

// MeasurementPoints draws well separated points. Candidates are generated
// area-weighted and accepted in order unless an accepted point lies within
// DistanceThreshold. When the candidate budget runs out first, the accepted
// points are returned with an under_sampled error.
func (ms *MeshSampler) MeasurementPoints(opts Options) ([]Point, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	// Cell size equal to the threshold means only the 27 surrounding cells can
	// hold a conflicting point
	index, err := spatial.NewPointGrid(opts.DistanceThreshold)
	if err != nil {
		return nil, err
	}

	budget := opts.NumPoints * opts.AttemptsMultiplier
	accepted := make([]Point, 0, opts.NumPoints)

	for attempt := 0; attempt < budget && len(accepted) < opts.NumPoints; attempt++ {
		candidate := ms.next(opts.SurfaceOffset)

		tooClose := index.AnyWithin(candidate.Position, opts.DistanceThreshold, func(idx int) bool {
			if opts.NormalSimilarity == 0 {
				return true
			}
			return accepted[idx].Normal.Dot(candidate.Normal) >= opts.NormalSimilarity
		})
		if tooClose {
			continue
		}

		index.Insert(candidate.Position)
		accepted = append(accepted, candidate)
	}

	if len(accepted) < opts.NumPoints {
		return accepted, errors.New("candidate budget exhausted before reaching the requested point count").
			WithType(core.ErrTypeUnderSampled).
			WithTag("requested", opts.NumPoints).
			WithTag("accepted", len(accepted)).
			WithTag("attempts", budget)
	}

	return accepted, nil
}

// Positions returns the positions of points in order
func Positions(points []Point) []core.Vec3 {
	out := make([]core.Vec3, len(points))
	for i, p := range points {
		out[i] = p.Position
	}
	return out
}

// CrossSection places a gridSize × gridSize grid of points on the plane
// X = x, at cell centers across the Y–Z extent of the mesh
func CrossSection(triangles []*geometry.Triangle, x float64, gridSize int) ([]Point, error) {
	if len(triangles) == 0 {
		return nil, errors.New("cannot place a cross section in an empty mesh").
			WithType(core.ErrTypeEmptyMesh)
	}
	if gridSize <= 0 {
		return nil, core.ConfigError("grid_size", gridSize, "cross section grid size must be positive")
	}

	bounds := triangles[0].BoundingBox()
	for _, tri := range triangles[1:] {
		bounds = bounds.Union(tri.BoundingBox())
	}
	size := bounds.Size()
	if size.Y == 0 || size.Z == 0 {
		return nil, errors.New("mesh has no extent in Y or Z").
			WithType(core.ErrTypeInvalidGeometry)
	}

	points := make([]Point, 0, gridSize*gridSize)
	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			y := bounds.Min.Y + (float64(i)+0.5)*size.Y/float64(gridSize)
			z := bounds.Min.Z + (float64(j)+0.5)*size.Z/float64(gridSize)
			points = append(points, Point{
				Position: core.NewVec3(x, y, z),
				Triangle: -1,
			})
		}
	}
	return points, nil
}
