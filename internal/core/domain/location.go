package domain

import "time"

// LocationState is a state of the location acquisition flow.
type LocationState string

const (
	LocationIdle                LocationState = "idle"
	LocationPermissionRequested LocationState = "permission_requested"
	LocationPermissionDenied    LocationState = "permission_denied"
	LocationPermissionGranted   LocationState = "permission_granted"
	LocationLocating            LocationState = "locating"
	LocationLocated             LocationState = "located"
	LocationFailed              LocationState = "location_failed"
)

// InFlight reports whether an acquisition is currently running in this state.
func (s LocationState) InFlight() bool {
	switch s {
	case LocationPermissionRequested, LocationPermissionGranted, LocationLocating:
		return true
	}
	return false
}

// Permission is the answer of the device permission prompt.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// NoticeKind classifies user-visible, non-fatal messages.
type NoticeKind string

const (
	NoticePermissionDenied    NoticeKind = "permission_denied"
	NoticeLocationUnavailable NoticeKind = "location_unavailable"
	NoticeFeedUnavailable     NoticeKind = "feed_unavailable"
)

// Notice is a user-visible message surfaced by the core.
type Notice struct {
	ID      string     `json:"id"`
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	At      time.Time  `json:"at"`
}

// LocationEvent is emitted by the location flow on every state transition.
// Position is set only when State is LocationLocated, Err only on failures.
type LocationEvent struct {
	State    LocationState `json:"state"`
	Position *GeoPoint     `json:"position,omitempty"`
	Err      error         `json:"-"`
}
