package ports

import (
	"context"

	"github.com/Singularity-v/MAP/internal/core/domain"
)

// LocationProvider is the device permission/geolocation subsystem.
// Only the location flow may call it.
type LocationProvider interface {
	RequestPermission(ctx context.Context) (domain.Permission, error)
	CurrentPosition(ctx context.Context) (domain.GeoPoint, error)
}

// FeedFetcher is the HTTP transport for the live feed. It returns the raw
// body of a 2xx response, or a *domain.FetchError.
type FeedFetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
	Endpoint() string
}

// StaticDataset supplies the bundled point-of-interest records.
type StaticDataset interface {
	Bytes() []byte
}

// RenderSurface consumes render-ready frames. Implementations must not block.
type RenderSurface interface {
	Render(frame domain.Frame)
}
