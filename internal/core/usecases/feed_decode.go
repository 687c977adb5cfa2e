package usecases

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Singularity-v/MAP/internal/core/domain"
)

// feedZone is the zone of the feed's mday timestamps (Taipei, no DST).
var feedZone = time.FixedZone("CST", 8*60*60)

const feedTimeLayout = "20060102150405"

// feedText accepts a JSON string, number or null and keeps its text form.
// The upstream feed sends numeric fields as strings, but not consistently.
type feedText struct {
	value string
	set   bool
}

func (t *feedText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		t.value, t.set = strings.TrimSpace(s), true
		return nil
	case len(b) > 0 && (b[0] == '-' || (b[0] >= '0' && b[0] <= '9')):
		t.value, t.set = string(b), true
		return nil
	}
	return fmt.Errorf("unexpected JSON value %s", b)
}

// feedRecord is one station as published by the bike-share feed.
type feedRecord struct {
	ID        feedText `json:"sno"`
	Name      feedText `json:"sna"`
	Total     feedText `json:"tot"`
	Available feedText `json:"sbi"`
	Area      feedText `json:"sarea"`
	UpdatedAt feedText `json:"mday"`
	Lat       feedText `json:"lat"`
	Lng       feedText `json:"lng"`
	Address   feedText `json:"ar"`
	Active    feedText `json:"act"`
}

var (
	errMissing  = errors.New("missing")
	errNegative = errors.New("negative")
	errRange    = errors.New("out of range")
	errNotArray = errors.New("body is not a JSON array")
)

// DecodeFeed turns a feed body into typed live sites. A body that is not a
// JSON array fails as a whole; a record that cannot be coerced is reported in
// dropped and skipped.
func DecodeFeed(body []byte) (sites []domain.LiveSite, dropped []error, err error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode feed: %w", err)
	}
	// null unmarshals into a nil slice without error
	if raw == nil {
		return nil, nil, fmt.Errorf("decode feed: %w", errNotArray)
	}

	sites = make([]domain.LiveSite, 0, len(raw))
	for i, msg := range raw {
		site, err := decodeRecord(i, msg)
		if err != nil {
			dropped = append(dropped, err)
			continue
		}
		sites = append(sites, site)
	}
	return sites, dropped, nil
}

func decodeRecord(i int, msg json.RawMessage) (domain.LiveSite, error) {
	var r feedRecord
	if err := json.Unmarshal(msg, &r); err != nil {
		return domain.LiveSite{}, &domain.MalformedRecordError{Index: i, Field: "record", Err: err}
	}

	if r.ID.value == "" {
		return domain.LiveSite{}, &domain.MalformedRecordError{Index: i, Field: "sno", Err: errMissing}
	}

	lat, err := parseCoord(r.Lat, 90)
	if err != nil {
		return domain.LiveSite{}, &domain.MalformedRecordError{Index: i, Field: "lat", Err: err}
	}
	lng, err := parseCoord(r.Lng, 180)
	if err != nil {
		return domain.LiveSite{}, &domain.MalformedRecordError{Index: i, Field: "lng", Err: err}
	}
	total, err := parseCount(r.Total)
	if err != nil {
		return domain.LiveSite{}, &domain.MalformedRecordError{Index: i, Field: "tot", Err: err}
	}
	available, err := parseCount(r.Available)
	if err != nil {
		return domain.LiveSite{}, &domain.MalformedRecordError{Index: i, Field: "sbi", Err: err}
	}

	site := domain.LiveSite{
		ID:            r.ID.value,
		Name:          r.Name.value,
		Address:       r.Address.value,
		Position:      domain.GeoPoint{Lat: lat, Lng: lng},
		CapacityTotal: total,
		Occupied:      available,
		Active:        !r.Active.set || r.Active.value != "0",
	}
	if r.UpdatedAt.set {
		if ts, err := time.ParseInLocation(feedTimeLayout, r.UpdatedAt.value, feedZone); err == nil {
			site.UpdatedAt = ts
		}
	}
	return site, nil
}

func parseCoord(t feedText, limit float64) (float64, error) {
	if !t.set || t.value == "" {
		return 0, errMissing
	}
	v, err := strconv.ParseFloat(t.value, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || v < -limit || v > limit {
		return 0, errRange
	}
	return v, nil
}

func parseCount(t feedText) (int, error) {
	if !t.set || t.value == "" {
		return 0, errMissing
	}
	v, err := strconv.Atoi(t.value)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, errNegative
	}
	return v, nil
}
