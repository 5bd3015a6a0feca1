package lights

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/df07/go-uv-exposure/pkg/core"
)

// Light is a point emitter of UV radiant power. Without a profile it emits
// isotropically; with one its output is scaled by the profile's angular
// falloff around Direction.
type Light struct {
	Position  core.Vec3 // Emitter position
	Intensity float64   // Total radiant power
	Direction core.Vec3 // Aim direction used by the profile
	Profile   *Profile  // Optional angular distribution, nil for isotropic
}

// New creates an isotropic point light
func New(position core.Vec3, intensity float64) (Light, error) {
	l := Light{
		Position:  position,
		Intensity: intensity,
		Direction: core.NewVec3(0, -1, 0),
	}
	if err := l.Validate(); err != nil {
		return Light{}, err
	}
	return l, nil
}

// NewWithProfile creates a light aimed along direction with an angular profile
func NewWithProfile(position core.Vec3, intensity float64, direction core.Vec3, profile *Profile) (Light, error) {
	l, err := New(position, intensity)
	if err != nil {
		return Light{}, err
	}
	if direction.LengthSquared() == 0 {
		return Light{}, errors.New("light direction must be non-zero").
			WithType(core.ErrTypeInvalidGeometry)
	}
	l.Direction = direction.Normalize()
	l.Profile = profile
	return l, nil
}

// Validate checks the light invariants for lights built as struct literals
func (l Light) Validate() error {
	if !l.Position.IsFinite() {
		return errors.New("light position must be finite").
			WithType(core.ErrTypeInvalidGeometry).
			WithTag("position", l.Position)
	}
	if !(l.Intensity >= 0) || math.IsInf(l.Intensity, 0) {
		return errors.New("light intensity must be a finite non-negative number").
			WithType(core.ErrTypeInvalidGeometry).
			WithTag("intensity", l.Intensity)
	}
	if l.Profile != nil && l.Direction.LengthSquared() == 0 {
		return errors.New("profiled light needs a direction").
			WithType(core.ErrTypeInvalidGeometry)
	}
	return nil
}

// Relative returns the fraction of forward output emitted toward dir (any
// length). Isotropic lights always return 1.
func (l Light) Relative(dir core.Vec3) float64 {
	if l.Profile == nil {
		return 1
	}
	cos := l.Direction.Normalize().Dot(dir.Normalize())
	cos = math.Max(-1, math.Min(1, cos))
	return l.Profile.Relative(math.Acos(cos) * 180 / math.Pi)
}

// TotalIntensity sums the radiant power of all lights
func TotalIntensity(lights []Light) float64 {
	total := 0.0
	for _, l := range lights {
		total += l.Intensity
	}
	return total
}
