package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("mapd-test")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 25.041077, cfg.Viewport.CenterLat)
	assert.Equal(t, 121.576102, cfg.Viewport.CenterLng)
	assert.Equal(t, 0.02, cfg.Viewport.SpanLat)
	assert.Equal(t, 0.01, cfg.Viewport.SpanLng)
	assert.Equal(t, 0.0002, cfg.Viewport.DriftThreshold)
	assert.Equal(t, time.Duration(0), cfg.Feed.RefreshInterval)
	assert.Equal(t, "mapd-test", cfg.Telemetry.ServiceName)
	assert.Equal(t, "static", cfg.Location.Provider)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MAPD_FEED_URL", "http://feed.internal/stations")
	t.Setenv("MAPD_FEED_REFRESH_INTERVAL", "45s")

	cfg, err := Load("mapd-test")
	require.NoError(t, err)

	assert.Equal(t, "http://feed.internal/stations", cfg.Feed.URL)
	assert.Equal(t, 45*time.Second, cfg.Feed.RefreshInterval)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("mapd-test")
	require.NoError(t, err)

	cfg.Server.Port = 0
	cfg.Feed.URL = "not a url"
	cfg.Location.Provider = "nats"

	err = cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "config validation failed"))
	assert.Contains(t, msg, "Config.Server.Port")
	assert.Contains(t, msg, "Config.Feed.URL")
	assert.Contains(t, msg, "location.provider=nats requires nats.enabled")
}
