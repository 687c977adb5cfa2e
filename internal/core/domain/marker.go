package domain

// MarkerKind distinguishes the three marker sources.
type MarkerKind string

const (
	MarkerUser   MarkerKind = "user"
	MarkerStatic MarkerKind = "static"
	MarkerLive   MarkerKind = "live"
)

// UserMarkerKey is the render key of the device marker.
const UserMarkerKey = "user"

// Ring is the circular badge drawn behind an icon.
type Ring struct {
	Fill   string `json:"fill"`
	Border string `json:"border"`
}

// IconRef names a bundled image and its display size.
type IconRef struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Ring   *Ring  `json:"ring,omitempty"`
}

// PieSlice is one wedge of a proportion indicator.
type PieSlice struct {
	Label string  `json:"label"`
	Share float64 `json:"share"` // percent, 0-100
	Color string  `json:"color"`
}

// PieChart paints an availability ratio as a small ring chart.
type PieChart struct {
	Ratio       float64    `json:"ratio"`
	Radius      int        `json:"radius"`
	InnerRadius int        `json:"inner_radius"`
	Slices      []PieSlice `json:"slices"`
}

// Visual is the drawing primitive of a marker. Chart is nil when no
// proportion indicator must be drawn.
type Visual struct {
	Icon  IconRef   `json:"icon"`
	Ratio float64   `json:"ratio"`
	Chart *PieChart `json:"chart,omitempty"`
}

// RenderMarker is a derived, render-ready marker.
type RenderMarker struct {
	Key      string     `json:"key"`
	Kind     MarkerKind `json:"kind"`
	Position GeoPoint   `json:"position"`
	Title    string     `json:"title"`
	Subtitle string     `json:"subtitle"`
	Visual   Visual     `json:"visual"`
}
