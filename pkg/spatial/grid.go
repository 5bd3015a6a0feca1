package spatial

import (
	"math"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/df07/go-uv-exposure/pkg/core"
	"github.com/df07/go-uv-exposure/pkg/geometry"
)

// Traversal selects how a ray walks the grid when gathering candidates
type Traversal int

const (
	// TraversalDDA walks every cell the segment passes through (Amanatides-Woo)
	TraversalDDA Traversal = iota
	// TraversalStepped samples the segment every half cell
	TraversalStepped
)

func (t Traversal) String() string {
	switch t {
	case TraversalStepped:
		return "stepped"
	default:
		return "dda"
	}
}

// ParseTraversal converts "dda" or "stepped" to a Traversal
func ParseTraversal(s string) (Traversal, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dda":
		return TraversalDDA, nil
	case "stepped":
		return TraversalStepped, nil
	default:
		return TraversalDDA, core.ConfigError("traversal", s, "unknown grid traversal")
	}
}

// cellKey identifies a grid cell as floor(position / cellSize) per axis
type cellKey struct {
	X, Y, Z int
}

func keyOf(p core.Vec3, cellSize float64) cellKey {
	return cellKey{
		X: int(math.Floor(p.X / cellSize)),
		Y: int(math.Floor(p.Y / cellSize)),
		Z: int(math.Floor(p.Z / cellSize)),
	}
}

// Grid is a uniform 3D grid over a fixed triangle set. Cells hold indices
// into the triangle slice the grid was built from; a triangle appears in
// every cell its bounding box overlaps. Grids are immutable once built and
// safe for concurrent queries.
type Grid struct {
	cellSize  float64
	cells     map[cellKey][]int32
	bounds    core.AABB
	traversal Traversal
	count     int
}

// Option configures a Grid
type Option func(*Grid)

// WithTraversal selects the candidate traversal
func WithTraversal(t Traversal) Option {
	return func(g *Grid) {
		g.traversal = t
	}
}

// NewGrid bins triangles into cells of size cellSize
func NewGrid(triangles []*geometry.Triangle, cellSize float64, opts ...Option) (*Grid, error) {
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		return nil, core.ConfigError("grid_cell_size", cellSize, "grid cell size must be positive")
	}
	if len(triangles) > math.MaxInt32 {
		return nil, errors.New("too many triangles for grid").
			WithType(core.ErrTypeInvalidGeometry).
			WithTag("triangles", len(triangles))
	}

	g := &Grid{
		cellSize: cellSize,
		cells:    make(map[cellKey][]int32),
		count:    len(triangles),
	}
	for _, opt := range opts {
		opt(g)
	}

	// Pad boxes so triangles lying exactly on a cell boundary land in both cells
	pad := cellSize * 1e-6
	for i, tri := range triangles {
		bbox := tri.BoundingBox().Expand(pad)
		if i == 0 {
			g.bounds = bbox
		} else {
			g.bounds = g.bounds.Union(bbox)
		}

		minCell := keyOf(bbox.Min, cellSize)
		maxCell := keyOf(bbox.Max, cellSize)
		for x := minCell.X; x <= maxCell.X; x++ {
			for y := minCell.Y; y <= maxCell.Y; y++ {
				for z := minCell.Z; z <= maxCell.Z; z++ {
					key := cellKey{x, y, z}
					g.cells[key] = append(g.cells[key], int32(i))
				}
			}
		}
	}

	return g, nil
}

// CellSize returns the edge length of a cell
func (g *Grid) CellSize() float64 {
	return g.cellSize
}

// Bounds returns the box enclosing every binned triangle
func (g *Grid) Bounds() core.AABB {
	return g.bounds
}

// Len returns the number of triangles the grid was built from
func (g *Grid) Len() int {
	return g.count
}

// Traversal returns the candidate traversal in use
func (g *Grid) Traversal() Traversal {
	return g.traversal
}

// Cell returns the triangle indices stored in cell (x, y, z)
func (g *Grid) Cell(x, y, z int) []int32 {
	return g.cells[cellKey{x, y, z}]
}

// CellCount returns the number of non-empty cells
func (g *Grid) CellCount() int {
	return len(g.cells)
}

// Candidates returns the deduplicated indices of every triangle that may
// intersect the segment [0, maxDistance] of ray. The result is a superset:
// callers must still run an exact intersection test on each candidate.
func (g *Grid) Candidates(ray core.Ray, maxDistance float64) []int32 {
	if g.count == 0 || !(maxDistance >= 0) || ray.Direction.LengthSquared() == 0 {
		return nil
	}

	// Nothing lives outside the bounds, so the walk ends where the ray leaves them
	tNear, tFar, ok := g.bounds.Clip(ray, 0, maxDistance)
	if !ok {
		return nil
	}

	var out []int32
	seen := make(map[int32]struct{})
	visit := func(key cellKey) {
		for _, idx := range g.cells[key] {
			if _, dup := seen[idx]; dup {
				continue
			}
			seen[idx] = struct{}{}
			out = append(out, idx)
		}
	}

	switch g.traversal {
	case TraversalStepped:
		g.marchStepped(ray, tNear, tFar, visit)
	default:
		g.marchDDA(ray, tNear, tFar, visit)
	}

	return out
}

// marchStepped visits the cell under the ray every half cell from tStart,
// plus the cell at tEnd
func (g *Grid) marchStepped(ray core.Ray, tStart, tEnd float64, visit func(cellKey)) {
	step := g.cellSize * 0.5
	visited := make(map[cellKey]struct{})

	for t := tStart; t < tEnd; t += step {
		key := keyOf(ray.At(t), g.cellSize)
		if _, ok := visited[key]; ok {
			continue
		}
		visited[key] = struct{}{}
		visit(key)
	}

	final := keyOf(ray.At(tEnd), g.cellSize)
	if _, ok := visited[final]; !ok {
		visit(final)
	}
}

// marchDDA visits every cell crossed by the ray between tStart and tEnd
func (g *Grid) marchDDA(ray core.Ray, tStart, tEnd float64, visit func(cellKey)) {
	start := keyOf(ray.At(tStart), g.cellSize)
	cell := [3]int{start.X, start.Y, start.Z}

	var step [3]int
	var tMax, tDelta [3]float64
	for axis := 0; axis < 3; axis++ {
		d := ray.Direction.Axis(axis)
		o := ray.Origin.Axis(axis)
		switch {
		case d > 0:
			step[axis] = 1
			tMax[axis] = (float64(cell[axis]+1)*g.cellSize - o) / d
			tDelta[axis] = g.cellSize / d
		case d < 0:
			step[axis] = -1
			tMax[axis] = (float64(cell[axis])*g.cellSize - o) / d
			tDelta[axis] = -g.cellSize / d
		default:
			tMax[axis] = math.Inf(1)
			tDelta[axis] = math.Inf(1)
		}
	}

	// A segment inside the bounds crosses at most this many cell boundaries
	size := g.bounds.Size()
	limit := int(size.X/g.cellSize+size.Y/g.cellSize+size.Z/g.cellSize) + 8

	visit(cellKey{cell[0], cell[1], cell[2]})
	for i := 0; i < limit; i++ {
		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}
		if tMax[axis] > tEnd {
			return
		}

		cell[axis] += step[axis]
		tMax[axis] += tDelta[axis]
		visit(cellKey{cell[0], cell[1], cell[2]})
	}
}
