package device_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Singularity-v/MAP/internal/adapters/device"
	"github.com/Singularity-v/MAP/internal/core/domain"
	"github.com/Singularity-v/MAP/internal/core/usecases"
)

func TestStatic_Granted(t *testing.T) {
	pos := domain.GeoPoint{Lat: 25.0330, Lng: 121.5654}
	p := &device.Static{Position: pos, Permission: domain.PermissionGranted}

	perm, err := p.RequestPermission(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.PermissionGranted, perm)

	got, err := p.CurrentPosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pos, got)
}

func TestStatic_NoDevice(t *testing.T) {
	p := &device.Static{Permission: domain.PermissionGranted, NoDevice: true}

	_, err := p.CurrentPosition(context.Background())
	assert.ErrorIs(t, err, domain.ErrLocationUnsupported)
}

func TestStatic_DrivesLocationMachine(t *testing.T) {
	for _, tc := range []struct {
		name string
		p    *device.Static
		want domain.LocationState
	}{
		{"granted", &device.Static{Position: domain.GeoPoint{Lat: 1, Lng: 2}, Permission: domain.PermissionGranted}, domain.LocationLocated},
		{"denied", &device.Static{Permission: domain.PermissionDenied}, domain.LocationPermissionDenied},
		{"emulator", &device.Static{Permission: domain.PermissionGranted, NoDevice: true}, domain.LocationFailed},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := usecases.NewLocationMachine(tc.p)
			m.Activate(context.Background())
			m.Wait()
			assert.Equal(t, tc.want, m.State())
		})
	}
}
