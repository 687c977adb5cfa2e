package domain

import "time"

// LocationStatus is the location part of a frame.
type LocationStatus struct {
	State  LocationState `json:"state"`
	Notice *Notice       `json:"notice,omitempty"`
}

// FeedStatus describes the live snapshot a frame was projected from.
type FeedStatus struct {
	UpdatedAt time.Time `json:"updated_at,omitempty"`
	Sites     int       `json:"sites"`
	Dropped   int       `json:"dropped"`
	LastError string    `json:"last_error,omitempty"`
	Notice    *Notice   `json:"notice,omitempty"`
}

// Frame is everything the render surface needs to draw the map once.
type Frame struct {
	Seq          uint64         `json:"seq"`
	Viewport     Viewport       `json:"viewport"`
	Markers      []RenderMarker `json:"markers"`
	Location     LocationStatus `json:"location"`
	ShowRecenter bool           `json:"show_recenter"`
	Feed         FeedStatus     `json:"feed"`
}
