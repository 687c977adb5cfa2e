package natsadapter

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Singularity-v/MAP/internal/adapters/device"
	"github.com/Singularity-v/MAP/internal/core/domain"
)

// roundTrip runs a responder handler and decodes its reply the way the
// client does, without a server in between.
func roundTrip(t *testing.T, handle func(context.Context) locationReply) (*locationReply, error) {
	t.Helper()
	data, err := json.Marshal(handle(context.Background()))
	require.NoError(t, err)
	return decodeReply(data)
}

func TestLocationReply_Position(t *testing.T) {
	r := &Responder{provider: &device.Static{
		Position:   domain.GeoPoint{Lat: 25.0330, Lng: 121.5654},
		Permission: domain.PermissionGranted,
	}}

	reply, err := roundTrip(t, r.position)
	require.NoError(t, err)
	require.NotNil(t, reply.Lat)
	assert.Equal(t, 25.0330, *reply.Lat)
	assert.Equal(t, 121.5654, *reply.Lng)

	reply, err = roundTrip(t, r.permission)
	require.NoError(t, err)
	assert.Equal(t, domain.PermissionGranted, reply.Permission)
}

func TestLocationReply_Zero(t *testing.T) {
	// (0,0) is a real position and must survive omitempty.
	r := &Responder{provider: &device.Static{Permission: domain.PermissionGranted}}

	reply, err := roundTrip(t, r.position)
	require.NoError(t, err)
	require.NotNil(t, reply.Lat)
	require.NotNil(t, reply.Lng)
}

func TestLocationReply_Unsupported(t *testing.T) {
	r := &Responder{provider: &device.Static{Permission: domain.PermissionGranted, NoDevice: true}}

	_, err := roundTrip(t, r.position)
	assert.ErrorIs(t, err, domain.ErrLocationUnsupported)
}

func TestDecodeReply_Errors(t *testing.T) {
	_, err := decodeReply([]byte(`not json`))
	assert.ErrorIs(t, err, domain.ErrLocationUnavailable)

	_, err = decodeReply([]byte(`{"code":"unavailable","error":"no fix"}`))
	assert.ErrorIs(t, err, domain.ErrLocationUnavailable)
	assert.Contains(t, err.Error(), "no fix")
}

func TestSubjects(t *testing.T) {
	assert.Equal(t, "device.location.permission", permissionSubject("device.location"))
	assert.Equal(t, "device.location.current", positionSubject("device.location"))
}
