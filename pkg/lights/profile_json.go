package lights

import (
	"io"
	"strconv"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/df07/go-uv-exposure/pkg/core"
	"github.com/segmentio/encoding/json"
)

// profileRecord is one lamp entry of a lamp intensity data document
type profileRecord struct {
	Name             string             `json:"name"`
	WavelengthNm     float64            `json:"wavelength_nm"`
	ForwardIntensity *float64           `json:"forward_intensity"`
	SamplesAtAngle   map[string]float64 `json:"intensity_samples_at_angle_deg"`
	SamplesAtPhi0    map[string]float64 `json:"intensity_samples_at_phi_0deg"`
}

// DecodeProfiles reads a lamp intensity document, a JSON object keyed by lamp
// id whose entries hold a name, a wavelength and angle→intensity samples
func DecodeProfiles(r io.Reader) (*ProfileSet, error) {
	var doc map[string]profileRecord
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.New("decoding lamp profiles failed").
			WithType(core.ErrTypeInvalidConfig).
			Wrap(err)
	}

	profiles := make(map[string]*Profile, len(doc))
	for id, rec := range doc {
		raw := rec.SamplesAtAngle
		if raw == nil {
			raw = rec.SamplesAtPhi0
		}

		samples := make(map[int]float64, len(raw))
		for key, v := range raw {
			angle, err := strconv.Atoi(key)
			if err != nil {
				return nil, errors.New("lamp profile angle is not an integer").
					WithType(core.ErrTypeInvalidConfig).
					WithTag("lamp", id).
					WithTag("angle", key).
					Wrap(err)
			}
			samples[angle] = v
		}

		forward := 0.0
		if rec.ForwardIntensity != nil {
			forward = *rec.ForwardIntensity
		}

		name := rec.Name
		if name == "" {
			name = id
		}
		p, err := NewProfile(name, rec.WavelengthNm, samples, forward)
		if err != nil {
			return nil, errors.New("invalid lamp profile").
				WithType(core.ErrTypeInvalidConfig).
				WithTag("lamp", id).
				Wrap(err)
		}
		profiles[id] = p
	}

	return NewProfileSet(profiles), nil
}
