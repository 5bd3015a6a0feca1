package spatial

import (
	"math"

	"github.com/df07/go-uv-exposure/pkg/core"
)

// PointGrid indexes points in uniform cells for radius queries. Points are
// identified by insertion order.
type PointGrid struct {
	cellSize float64
	cells    map[cellKey][]int32
	points   []core.Vec3
}

// NewPointGrid creates an empty point index with the given cell size
func NewPointGrid(cellSize float64) (*PointGrid, error) {
	if !(cellSize > 0) || math.IsInf(cellSize, 0) {
		return nil, core.ConfigError("point_cell_size", cellSize, "point grid cell size must be positive")
	}
	return &PointGrid{
		cellSize: cellSize,
		cells:    make(map[cellKey][]int32),
	}, nil
}

// NewPointGridFrom indexes all points at once
func NewPointGridFrom(points []core.Vec3, cellSize float64) (*PointGrid, error) {
	g, err := NewPointGrid(cellSize)
	if err != nil {
		return nil, err
	}
	g.points = make([]core.Vec3, 0, len(points))
	for _, p := range points {
		g.Insert(p)
	}
	return g, nil
}

// Insert adds a point and returns its index
func (g *PointGrid) Insert(p core.Vec3) int {
	idx := len(g.points)
	g.points = append(g.points, p)
	key := keyOf(p, g.cellSize)
	g.cells[key] = append(g.cells[key], int32(idx))
	return idx
}

// Len returns the number of indexed points
func (g *PointGrid) Len() int {
	return len(g.points)
}

// CellSize returns the edge length of a cell
func (g *PointGrid) CellSize() float64 {
	return g.cellSize
}

// Within calls fn for every point strictly closer than radius to center.
// Iteration stops early when fn returns false.
func (g *PointGrid) Within(center core.Vec3, radius float64, fn func(idx int, dist float64) bool) {
	if !(radius > 0) || len(g.points) == 0 {
		return
	}

	reach := int(math.Ceil(radius / g.cellSize))
	c := keyOf(center, g.cellSize)
	r2 := radius * radius

	for x := c.X - reach; x <= c.X+reach; x++ {
		for y := c.Y - reach; y <= c.Y+reach; y++ {
			for z := c.Z - reach; z <= c.Z+reach; z++ {
				for _, idx := range g.cells[cellKey{x, y, z}] {
					d2 := g.points[idx].Subtract(center).LengthSquared()
					if d2 >= r2 {
						continue
					}
					if !fn(int(idx), math.Sqrt(d2)) {
						return
					}
				}
			}
		}
	}
}

// AnyWithin reports whether some point closer than radius to center satisfies match
func (g *PointGrid) AnyWithin(center core.Vec3, radius float64, match func(idx int) bool) bool {
	found := false
	g.Within(center, radius, func(idx int, _ float64) bool {
		if match == nil || match(idx) {
			found = true
			return false
		}
		return true
	})
	return found
}
