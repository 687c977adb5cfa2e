package ports

import (
	"context"

	"github.com/Singularity-v/MAP/internal/core/domain"
)

// FramePublisher broadcasts frames and live snapshots to other processes.
type FramePublisher interface {
	PublishFrame(ctx context.Context, frame *domain.Frame) error
	PublishLiveSnapshot(ctx context.Context, snap *domain.LiveSnapshot) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
