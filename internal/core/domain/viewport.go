package domain

import "math"

// Viewport is the region currently displayed by the map.
type Viewport struct {
	Center   GeoPoint `json:"center"`
	SpanLat  float64  `json:"span_lat"`
	SpanLng  float64  `json:"span_lng"`
	Anchored bool     `json:"anchored"`
}

// Bounds returns the rectangle covered by the viewport.
func (v Viewport) Bounds() Bounds {
	halfLat := math.Abs(v.SpanLat) / 2
	halfLng := math.Abs(v.SpanLng) / 2
	return Bounds{
		MinLat: v.Center.Lat - halfLat,
		MinLng: v.Center.Lng - halfLng,
		MaxLat: v.Center.Lat + halfLat,
		MaxLng: v.Center.Lng + halfLng,
	}
}

// DriftEvent is reported by the render surface whenever the displayed region
// changes, whether the user dragged the map or the map was moved in code.
type DriftEvent struct {
	Center  GeoPoint `json:"center"`
	SpanLat float64  `json:"span_lat"`
	SpanLng float64  `json:"span_lng"`
}
