package usecases

import (
	"math"

	"github.com/Singularity-v/MAP/internal/core/domain"
	"github.com/Singularity-v/MAP/internal/pkg/metrics"
)

// DefaultDriftThreshold is the per-axis tolerance, in degrees, below which a
// reported move is treated as jitter or as the echo of our own recentering.
const DefaultDriftThreshold = 0.0002

// ViewportController owns the authoritative map region. It is not safe for
// concurrent use; MapSession calls it from its event loop only.
type ViewportController struct {
	vp        domain.Viewport
	threshold float64
}

// NewViewportController starts from the given default region.
func NewViewportController(initial domain.Viewport, threshold float64) *ViewportController {
	if threshold < 0 {
		threshold = DefaultDriftThreshold
	}
	return &ViewportController{vp: initial, threshold: threshold}
}

// Viewport returns the current region.
func (c *ViewportController) Viewport() domain.Viewport {
	return c.vp
}

// HandleDrift applies a region reported by the render surface. Moves within
// the threshold on both axes are ignored; larger moves replace the region and
// detach the view from the user marker. It reports whether the move was taken.
func (c *ViewportController) HandleDrift(ev domain.DriftEvent) bool {
	dLat := math.Abs(ev.Center.Lat - c.vp.Center.Lat)
	dLng := math.Abs(ev.Center.Lng - c.vp.Center.Lng)
	if dLat <= c.threshold && dLng <= c.threshold {
		metrics.ViewportDrift.WithLabelValues("ignored").Inc()
		return false
	}

	c.vp = domain.Viewport{
		Center:   ev.Center,
		SpanLat:  ev.SpanLat,
		SpanLng:  ev.SpanLng,
		Anchored: false,
	}
	metrics.ViewportDrift.WithLabelValues("accepted").Inc()
	return true
}

// HandleLocation recenters on a freshly acquired position, keeps the span and
// anchors the view. It is the only way back to Anchored.
func (c *ViewportController) HandleLocation(pos domain.GeoPoint) {
	c.vp.Center = pos
	c.vp.Anchored = true
}
