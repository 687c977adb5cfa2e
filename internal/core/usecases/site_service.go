package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Singularity-v/MAP/internal/core/domain"
	"github.com/Singularity-v/MAP/internal/core/ports"
	"github.com/Singularity-v/MAP/internal/pkg/geospatial"
	"github.com/Singularity-v/MAP/internal/pkg/metrics"
)

// FrameSource is anything that can hand out the current frame.
type FrameSource interface {
	Frame() domain.Frame
}

// NearbySite is a marker with its distance to the query point.
type NearbySite struct {
	Marker         domain.RenderMarker `json:"marker"`
	DistanceMeters float64             `json:"distance_meters"`
}

// SiteService answers spatial queries over the markers of the current frame.
type SiteService struct {
	frames FrameSource
	cache  ports.CacheService

	mu       sync.Mutex
	indexSeq uint64
	index    *geospatial.Index
	markers  []domain.RenderMarker
}

// NewSiteService creates a SiteService. cache may be nil.
func NewSiteService(frames FrameSource, cache ports.CacheService) *SiteService {
	return &SiteService{frames: frames, cache: cache}
}

// Visible returns the markers inside the current viewport, in z-order.
func (s *SiteService) Visible(ctx context.Context) ([]domain.RenderMarker, error) {
	frame := s.frames.Frame()
	idx, markers := s.indexFor(frame)

	seqs, err := idx.InBounds(frame.Viewport.Bounds())
	if err != nil {
		return nil, err
	}
	out := make([]domain.RenderMarker, 0, len(seqs))
	for _, i := range seqs {
		out = append(out, markers[i])
	}
	return out, nil
}

// Nearby returns static and live sites within radiusMeters of center,
// closest first. The user marker is never part of the result.
func (s *SiteService) Nearby(ctx context.Context, center domain.GeoPoint, radiusMeters float64, limit int) ([]NearbySite, error) {
	if !center.Valid() {
		return nil, fmt.Errorf("center %v out of range", center)
	}
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	frame := s.frames.Frame()

	// Keyed by frame so a live update never serves stale availability.
	cacheKey := fmt.Sprintf("sites:nearby:%d:%.5f:%.5f:%.0f:%d", frame.Seq, center.Lat, center.Lng, radiusMeters, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var sites []NearbySite
			if err := json.Unmarshal(data, &sites); err == nil {
				metrics.CacheHits.WithLabelValues("nearby").Inc()
				return sites, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("nearby").Inc()
	}

	idx, markers := s.indexFor(frame)
	// one extra hit in case the user marker is among the closest
	hits, err := idx.Nearby(center, radiusMeters, limit+1)
	if err != nil {
		return nil, err
	}

	sites := make([]NearbySite, 0, len(hits))
	for _, h := range hits {
		m := markers[h.Seq]
		if m.Kind == domain.MarkerUser {
			continue
		}
		sites = append(sites, NearbySite{Marker: m, DistanceMeters: h.Distance})
		if len(sites) == limit {
			break
		}
	}

	// Cache for 30 seconds
	if s.cache != nil {
		if data, err := json.Marshal(sites); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 30)
		}
	}

	return sites, nil
}

func (s *SiteService) indexFor(frame domain.Frame) (*geospatial.Index, []domain.RenderMarker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil || s.indexSeq != frame.Seq {
		positions := make([]domain.GeoPoint, len(frame.Markers))
		for i, m := range frame.Markers {
			positions[i] = m.Position
		}
		s.index = geospatial.NewIndex(positions)
		s.indexSeq = frame.Seq
		s.markers = frame.Markers
	}
	return s.index, s.markers
}
