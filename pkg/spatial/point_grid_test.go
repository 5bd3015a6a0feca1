package spatial

import (
	"sort"
	"testing"

	"github.com/df07/go-uv-exposure/pkg/core"
	"github.com/stretchr/testify/require"
)

func TestPointGrid_WithinMatchesBruteForce(t *testing.T) {
	sampler := core.NewSeededSampler(21)
	points := make([]core.Vec3, 400)
	for i := range points {
		points[i] = randomPoint(sampler, -5, 5)
	}

	for _, cellSize := range []float64{0.25, 0.5, 2} {
		grid, err := NewPointGridFrom(points, cellSize)
		require.NoError(t, err)
		require.Equal(t, len(points), grid.Len())

		for q := 0; q < 50; q++ {
			center := randomPoint(sampler, -5, 5)
			radius := randomIn(sampler, 0.1, 2)

			var got []int
			grid.Within(center, radius, func(idx int, dist float64) bool {
				require.InDelta(t, points[idx].Distance(center), dist, 1e-12)
				got = append(got, idx)
				return true
			})
			sort.Ints(got)

			var want []int
			for i, p := range points {
				if p.Distance(center) < radius {
					want = append(want, i)
				}
			}
			require.Equal(t, want, got, "cell size %v radius %v", cellSize, radius)
		}
	}
}

func TestPointGrid_AnyWithin(t *testing.T) {
	grid, err := NewPointGrid(1)
	require.NoError(t, err)

	a := grid.Insert(core.NewVec3(0, 0, 0))
	b := grid.Insert(core.NewVec3(0.5, 0, 0))
	require.Equal(t, 0, a)
	require.Equal(t, 1, b)

	require.True(t, grid.AnyWithin(core.NewVec3(0.9, 0, 0), 0.5, nil))
	require.False(t, grid.AnyWithin(core.NewVec3(2, 0, 0), 1, nil))

	// Points exactly at radius distance do not count
	require.False(t, grid.AnyWithin(core.NewVec3(1.5, 0, 0), 1, nil))

	require.True(t, grid.AnyWithin(core.NewVec3(0.25, 0, 0), 1, func(idx int) bool { return idx == b }))
	require.False(t, grid.AnyWithin(core.NewVec3(0.25, 0, 0), 1, func(idx int) bool { return idx > 5 }))
}

func TestNewPointGrid_InvalidCellSize(t *testing.T) {
	_, err := NewPointGrid(0)
	require.Error(t, err)
}
