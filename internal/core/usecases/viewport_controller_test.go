package usecases_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Singularity-v/MAP/internal/core/domain"
	"github.com/Singularity-v/MAP/internal/core/usecases"
)

var home = domain.Viewport{
	Center:  domain.GeoPoint{Lat: 25.041077, Lng: 121.576102},
	SpanLat: 0.02,
	SpanLng: 0.01,
}

func drift(dLat, dLng float64) domain.DriftEvent {
	return domain.DriftEvent{
		Center:  domain.GeoPoint{Lat: home.Center.Lat + dLat, Lng: home.Center.Lng + dLng},
		SpanLat: 0.03,
		SpanLng: 0.015,
	}
}

func TestViewportController_IgnoresJitter(t *testing.T) {
	for _, tc := range []struct{ dLat, dLng float64 }{
		{0, 0},
		{0.0001, -0.0001},
		{0.0002, 0},
		{-0.00019, 0.00019},
	} {
		anchored := home
		anchored.Anchored = true
		c := usecases.NewViewportController(anchored, usecases.DefaultDriftThreshold)

		taken := c.HandleDrift(drift(tc.dLat, tc.dLng))

		assert.False(t, taken, "Δ=(%v,%v)", tc.dLat, tc.dLng)
		assert.Equal(t, anchored, c.Viewport(), "Δ=(%v,%v)", tc.dLat, tc.dLng)
	}
}

func TestViewportController_AcceptsPan(t *testing.T) {
	for _, tc := range []struct{ dLat, dLng float64 }{
		{0.01, 0},
		{0, -0.0003},
		{-0.5, 0.5},
	} {
		anchored := home
		anchored.Anchored = true
		c := usecases.NewViewportController(anchored, usecases.DefaultDriftThreshold)
		ev := drift(tc.dLat, tc.dLng)

		taken := c.HandleDrift(ev)

		vp := c.Viewport()
		assert.True(t, taken)
		assert.False(t, vp.Anchored)
		assert.Equal(t, ev.Center, vp.Center)
		assert.Equal(t, ev.SpanLat, vp.SpanLat)
		assert.Equal(t, ev.SpanLng, vp.SpanLng)
	}
}

func TestViewportController_LocationAnchorsAndKeepsSpan(t *testing.T) {
	c := usecases.NewViewportController(home, usecases.DefaultDriftThreshold)
	c.HandleDrift(drift(0.01, 0))
	panned := c.Viewport()

	pos := domain.GeoPoint{Lat: 25.0330, Lng: 121.5654}
	c.HandleLocation(pos)

	vp := c.Viewport()
	assert.True(t, vp.Anchored)
	assert.Equal(t, pos, vp.Center)
	assert.Equal(t, panned.SpanLat, vp.SpanLat)
	assert.Equal(t, panned.SpanLng, vp.SpanLng)

	// already anchored: still anchored, center follows
	next := domain.GeoPoint{Lat: 25.0331, Lng: 121.5655}
	c.HandleLocation(next)
	assert.True(t, c.Viewport().Anchored)
	assert.Equal(t, next, c.Viewport().Center)
}

func TestViewportController_RecenterEchoIsNotAPan(t *testing.T) {
	c := usecases.NewViewportController(home, usecases.DefaultDriftThreshold)
	pos := domain.GeoPoint{Lat: 25.0330, Lng: 121.5654}
	c.HandleLocation(pos)

	// the map animates to pos and reports where it settled
	settled := domain.DriftEvent{
		Center:  domain.GeoPoint{Lat: pos.Lat + 0.00005, Lng: pos.Lng - 0.00005},
		SpanLat: home.SpanLat,
		SpanLng: home.SpanLng,
	}
	assert.False(t, c.HandleDrift(settled))
	assert.True(t, c.Viewport().Anchored)
}

func TestViewportController_NegativeThresholdFallsBackToDefault(t *testing.T) {
	c := usecases.NewViewportController(home, -1)
	assert.False(t, c.HandleDrift(drift(0.0001, 0)))
	assert.True(t, c.HandleDrift(drift(0.001, 0)))
}
