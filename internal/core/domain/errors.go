package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPermissionDenied is returned when the user refused location access.
	ErrPermissionDenied = errors.New("permission to access location was denied")
	// ErrLocationUnavailable wraps device or transport failures while locating.
	ErrLocationUnavailable = errors.New("location unavailable")
	// ErrLocationUnsupported is reported by providers running without a real
	// positioning device, such as an emulator.
	ErrLocationUnsupported = errors.New("location is not supported on this device")
	// ErrAcquisitionInFlight is returned when a re-trigger arrives while an
	// acquisition is still running.
	ErrAcquisitionInFlight = errors.New("location acquisition already in flight")
)

// FetchError reports a failed live feed fetch: transport failure, non-2xx
// status or a body that is not a JSON array.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MalformedRecordError reports a single feed record that could not be coerced.
type MalformedRecordError struct {
	Index int
	Field string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("record %d: field %s: %v", e.Index, e.Field, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }
