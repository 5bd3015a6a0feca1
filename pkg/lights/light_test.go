package lights

import (
	"math"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/df07/go-uv-exposure/pkg/core"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsNegativeIntensity(t *testing.T) {
	for _, intensity := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := New(core.NewVec3(0, 0, 0), intensity)
		require.Error(t, err)
		require.True(t, errors.IsType(err, core.ErrTypeInvalidGeometry))
	}

	_, err := New(core.NewVec3(math.NaN(), 0, 0), 1)
	require.True(t, errors.IsType(err, core.ErrTypeInvalidGeometry))
	require.Error(t, Light{Position: core.NewVec3(0, math.Inf(1), 0), Intensity: 1}.Validate())

	l, err := New(core.NewVec3(1, 2, 3), 0)
	require.NoError(t, err)
	require.NoError(t, l.Validate())
	require.Equal(t, 1.0, l.Relative(core.NewVec3(1, 0, 0)))
}

func TestLight_RelativeWithProfile(t *testing.T) {
	profile, err := NewProfile("test", 222, map[int]float64{0: 10, 45: 5, 90: 0}, 0)
	require.NoError(t, err)

	l, err := NewWithProfile(core.NewVec3(0, 10, 0), 100, core.NewVec3(0, -2, 0), profile)
	require.NoError(t, err)

	tests := []struct {
		name     string
		dir      core.Vec3
		expected float64
	}{
		{"On axis", core.NewVec3(0, -1, 0), 1},
		{"45 degrees", core.NewVec3(1, -1, 0), 0.5},
		{"Sideways", core.NewVec3(1, 0, 0), 0},
		{"Behind the lamp clamps to 90", core.NewVec3(0, 1, 0), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.expected, l.Relative(tt.dir), 1e-9)
		})
	}

	_, err = NewWithProfile(core.NewVec3(0, 0, 0), 1, core.Vec3{}, profile)
	require.Error(t, err)
}

func TestTotalIntensity(t *testing.T) {
	a, _ := New(core.NewVec3(0, 0, 0), 10)
	b, _ := New(core.NewVec3(1, 0, 0), 2.5)
	require.Equal(t, 12.5, TotalIntensity([]Light{a, b}))
	require.Zero(t, TotalIntensity(nil))
}
