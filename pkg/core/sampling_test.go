package core

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSampleCosineHemisphere(t *testing.T) {
	sampler := NewRandomSampler(rand.New(rand.NewSource(42)))
	normals := []Vec3{
		NewVec3(0, 1, 0),
		NewVec3(0, -1, 0),
		NewVec3(1, 0, 0),
		NewVec3(1, 1, 1).Normalize(),
	}

	for _, normal := range normals {
		sumCos := 0.0
		const n = 20000
		for i := 0; i < n; i++ {
			dir := SampleCosineHemisphere(normal, sampler.Get2D())
			require.InDelta(t, 1.0, dir.Length(), 1e-9)
			cos := dir.Dot(normal)
			require.GreaterOrEqual(t, cos, -1e-9, "direction must stay in the normal's hemisphere")
			sumCos += cos
		}

		// E[cos θ] for a cosine-weighted hemisphere is 2/3
		require.InDelta(t, 2.0/3.0, sumCos/n, 0.01, "normal %v", normal)
	}
}

func TestSampleOnUnitSphere(t *testing.T) {
	sampler := NewSeededSampler(7)
	var mean Vec3
	const n = 20000
	for i := 0; i < n; i++ {
		dir := SampleOnUnitSphere(sampler.Get2D())
		require.InDelta(t, 1.0, dir.Length(), 1e-9)
		mean = mean.Add(dir)
	}
	mean = mean.Multiply(1.0 / n)
	require.Less(t, mean.Length(), 0.03, "uniform sphere samples should average to the origin")
}

func TestSampleTriangle(t *testing.T) {
	v0 := NewVec3(0, 0, 0)
	v1 := NewVec3(1, 0, 0)
	v2 := NewVec3(0, 1, 0)
	sampler := NewSeededSampler(3)

	var centroid Vec3
	const n = 20000
	for i := 0; i < n; i++ {
		p := SampleTriangle(v0, v1, v2, sampler.Get2D())
		require.GreaterOrEqual(t, p.X, -1e-12)
		require.GreaterOrEqual(t, p.Y, -1e-12)
		require.LessOrEqual(t, p.X+p.Y, 1+1e-12)
		require.Zero(t, p.Z)
		centroid = centroid.Add(p)
	}
	centroid = centroid.Multiply(1.0 / n)

	// Uniform samples average to the centroid (1/3, 1/3)
	require.InDelta(t, 1.0/3.0, centroid.X, 0.01)
	require.InDelta(t, 1.0/3.0, centroid.Y, 0.01)
}

func TestStreamSeed(t *testing.T) {
	seen := map[int64]bool{}
	for i := 0; i < 64; i++ {
		s := StreamSeed(42, i)
		require.False(t, seen[s], "stream %d reused a seed", i)
		seen[s] = true
	}
	require.Equal(t, StreamSeed(1, 3), StreamSeed(1, 3))
}
