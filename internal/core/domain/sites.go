package domain

import "time"

// StaticSite is a fixed point of interest, e.g. a metro station on one line.
// A station served by several lines appears once per line.
type StaticSite struct {
	ID       string   `json:"id"`
	GroupKey string   `json:"line"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Position GeoPoint `json:"position"`
}

// Key returns the composite identity of the site.
func (s StaticSite) Key() string {
	return "static:" + s.ID + ":" + s.GroupKey
}

// LiveSite is a dock station whose availability is refreshed from the live feed.
type LiveSite struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	Position      GeoPoint  `json:"position"`
	CapacityTotal int       `json:"capacity_total"`
	Occupied      int       `json:"occupied"`
	Active        bool      `json:"active"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// Key returns the feed identity of the site.
func (s LiveSite) Key() string {
	return "live:" + s.ID
}

// LiveSnapshot is one complete, successfully decoded poll of the live feed.
type LiveSnapshot struct {
	Sites     []LiveSite `json:"sites"`
	FetchedAt time.Time  `json:"fetched_at"`
	Dropped   int        `json:"dropped"`
}

// UserMarker is the single marker showing the device position.
type UserMarker struct {
	Position GeoPoint `json:"position"`
	Label    string   `json:"label"`
	Address  string   `json:"address"`
}
