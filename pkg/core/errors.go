package core

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Error types attached to errors returned by the simulation packages.
// Test them with errors.IsType.
const (
	ErrTypeInvalidConfig   = "invalid_config"
	ErrTypeInvalidGeometry = "invalid_geometry"
	ErrTypeEmptyMesh       = "empty_mesh"
	ErrTypeUnderSampled    = "under_sampled"
)

// ConfigError returns an invalid_config error for the named field
func ConfigError(field string, value any, reason string) error {
	return errors.New(reason).
		WithType(ErrTypeInvalidConfig).
		WithTag("field", field).
		WithTag("value", value)
}
