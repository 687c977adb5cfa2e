// Package device provides location providers that need no real hardware.
package device

import (
	"context"

	"github.com/Singularity-v/MAP/internal/core/domain"
)

// Static answers permission and position requests from configuration. It
// stands in for a positioning device on servers and in demos.
type Static struct {
	Position   domain.GeoPoint
	Permission domain.Permission
	// NoDevice makes every position request fail as unsupported, the way an
	// emulator without location services does.
	NoDevice bool
}

// RequestPermission returns the configured answer.
func (s *Static) RequestPermission(ctx context.Context) (domain.Permission, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.Permission, nil
}

// CurrentPosition returns the configured fix.
func (s *Static) CurrentPosition(ctx context.Context) (domain.GeoPoint, error) {
	if err := ctx.Err(); err != nil {
		return domain.GeoPoint{}, err
	}
	if s.NoDevice {
		return domain.GeoPoint{}, domain.ErrLocationUnsupported
	}
	return s.Position, nil
}
