package lights

import (
	"sort"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/df07/go-uv-exposure/pkg/core"
)

// Profile is a lamp's measured angular intensity distribution. Samples are
// keyed by angle in degrees from the aim direction, within [0, 90].
type Profile struct {
	Name         string
	WavelengthNm float64
	forward      float64
	angles       []float64
	values       []float64
}

// NewProfile builds a profile from angle→intensity samples. forward is the
// on-axis reference intensity; zero means use the sample at 0°.
func NewProfile(name string, wavelengthNm float64, samples map[int]float64, forward float64) (*Profile, error) {
	if len(samples) == 0 {
		return nil, errors.New("lamp profile has no samples").
			WithType(core.ErrTypeInvalidConfig).
			WithTag("profile", name)
	}

	p := &Profile{Name: name, WavelengthNm: wavelengthNm}
	for angle := range samples {
		p.angles = append(p.angles, float64(angle))
	}
	sort.Float64s(p.angles)
	for _, a := range p.angles {
		v := samples[int(a)]
		if v < 0 {
			return nil, errors.New("lamp profile intensities must be non-negative").
				WithType(core.ErrTypeInvalidConfig).
				WithTag("profile", name).
				WithTag("angle", a)
		}
		p.values = append(p.values, v)
	}

	p.forward = forward
	if p.forward == 0 {
		if v, ok := samples[0]; ok {
			p.forward = v
		} else {
			p.forward = p.values[0]
		}
	}
	if p.forward <= 0 {
		return nil, errors.New("lamp profile forward intensity must be positive").
			WithType(core.ErrTypeInvalidConfig).
			WithTag("profile", name)
	}

	return p, nil
}

// IntensityAt returns the interpolated intensity at angle degrees, clamped to [0, 90]
func (p *Profile) IntensityAt(angle float64) float64 {
	angle = max(0, min(90, angle))

	i := sort.SearchFloat64s(p.angles, angle)
	switch {
	case i == 0:
		return p.values[0]
	case i == len(p.angles):
		return p.values[len(p.values)-1]
	case p.angles[i] == angle:
		return p.values[i]
	}

	lo, hi := p.angles[i-1], p.angles[i]
	t := (angle - lo) / (hi - lo)
	return p.values[i-1] + t*(p.values[i]-p.values[i-1])
}

// Relative returns IntensityAt(angle) normalized by the forward intensity
func (p *Profile) Relative(angle float64) float64 {
	return p.IntensityAt(angle) / p.forward
}

// ProfileSet is an explicit registry of lamp profiles, built once and passed
// to whoever needs to resolve lamp types.
type ProfileSet struct {
	profiles map[string]*Profile
}

// NewProfileSet creates a registry from the given profiles keyed by id
func NewProfileSet(profiles map[string]*Profile) *ProfileSet {
	set := &ProfileSet{profiles: make(map[string]*Profile, len(profiles))}
	for id, p := range profiles {
		set.profiles[id] = p
	}
	return set
}

// Get returns the profile registered under id
func (s *ProfileSet) Get(id string) (*Profile, bool) {
	p, ok := s.profiles[id]
	return p, ok
}

// IDs returns the registered profile ids in sorted order
func (s *ProfileSet) IDs() []string {
	ids := make([]string, 0, len(s.profiles))
	for id := range s.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
