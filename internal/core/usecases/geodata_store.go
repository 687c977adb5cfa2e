package usecases

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/Singularity-v/MAP/internal/core/domain"
	"github.com/Singularity-v/MAP/internal/core/ports"
)

// stationRecord is one entry of the bundled station dataset.
type stationRecord struct {
	ID        string  `json:"id"`
	Line      string  `json:"line"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeodataStore holds the static points of interest. It is loaded once and
// never mutated afterwards.
type GeodataStore struct {
	sites []domain.StaticSite
}

// LoadGeodata decodes the bundled dataset, keeping dataset order.
func LoadGeodata(ds ports.StaticDataset) (*GeodataStore, error) {
	var records []stationRecord
	if err := json.Unmarshal(ds.Bytes(), &records); err != nil {
		return nil, fmt.Errorf("decode static dataset: %w", err)
	}

	seen := make(map[string]int, len(records))
	sites := make([]domain.StaticSite, 0, len(records))
	for i, r := range records {
		site := domain.StaticSite{
			ID:       r.ID,
			GroupKey: r.Line,
			Name:     r.Name,
			Address:  r.Address,
			Position: domain.GeoPoint{Lat: r.Latitude, Lng: r.Longitude},
		}
		if site.ID == "" {
			return nil, fmt.Errorf("static dataset record %d: missing id", i)
		}
		if !site.Position.Valid() {
			return nil, fmt.Errorf("static dataset record %d (%s): coordinates out of range", i, site.Key())
		}
		if prev, dup := seen[site.Key()]; dup {
			return nil, fmt.Errorf("static dataset record %d duplicates record %d (%s)", i, prev, site.Key())
		}
		seen[site.Key()] = i
		sites = append(sites, site)
	}

	return &GeodataStore{sites: sites}, nil
}

// MustLoadGeodata is LoadGeodata for data compiled into the binary.
func MustLoadGeodata(ds ports.StaticDataset) *GeodataStore {
	store, err := LoadGeodata(ds)
	if err != nil {
		panic(err)
	}
	return store
}

// Sites returns the static sites in dataset order. The slice is a copy.
func (s *GeodataStore) Sites() []domain.StaticSite {
	return slices.Clone(s.sites)
}

// Len returns the number of static sites.
func (s *GeodataStore) Len() int {
	return len(s.sites)
}
