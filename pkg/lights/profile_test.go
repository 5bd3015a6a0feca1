package lights

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProfile_IntensityAt(t *testing.T) {
	profile, err := NewProfile("ushio_b1", 222, map[int]float64{
		0:  100,
		10: 90,
		30: 50,
		60: 10,
	}, 0)
	require.NoError(t, err)

	tests := []struct {
		angle    float64
		expected float64
	}{
		{-5, 100},  // clamped to 0
		{0, 100},   // exact sample
		{5, 95},    // interpolated
		{20, 70},   // interpolated
		{30, 50},   // exact sample
		{45, 30},   // interpolated
		{75, 10},   // beyond last sample
		{120, 10},  // clamped to 90
	}
	for _, tt := range tests {
		require.InDelta(t, tt.expected, profile.IntensityAt(tt.angle), 1e-9, "angle %v", tt.angle)
	}
	require.InDelta(t, 0.5, profile.Relative(30), 1e-9)
}

func TestProfile_ExplicitForward(t *testing.T) {
	profile, err := NewProfile("beacon", 254, map[int]float64{10: 40, 20: 20}, 80)
	require.NoError(t, err)
	require.InDelta(t, 0.5, profile.Relative(0), 1e-9)
}

func TestNewProfile_Invalid(t *testing.T) {
	_, err := NewProfile("empty", 222, nil, 0)
	require.Error(t, err)

	_, err = NewProfile("negative", 222, map[int]float64{0: 1, 10: -1}, 0)
	require.Error(t, err)

	_, err = NewProfile("dark", 222, map[int]float64{0: 0}, 0)
	require.Error(t, err)
}

func TestProfileSet(t *testing.T) {
	a, _ := NewProfile("a", 222, map[int]float64{0: 1}, 0)
	b, _ := NewProfile("b", 254, map[int]float64{0: 2}, 0)
	set := NewProfileSet(map[string]*Profile{"beacon": b, "aerolamp": a})

	require.Equal(t, []string{"aerolamp", "beacon"}, set.IDs())
	p, ok := set.Get("beacon")
	require.True(t, ok)
	require.Equal(t, "b", p.Name)
	_, ok = set.Get("missing")
	require.False(t, ok)
}
