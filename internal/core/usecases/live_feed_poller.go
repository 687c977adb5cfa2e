package usecases

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Singularity-v/MAP/internal/core/domain"
	"github.com/Singularity-v/MAP/internal/core/ports"
	"github.com/Singularity-v/MAP/internal/pkg/metrics"
	"github.com/Singularity-v/MAP/internal/pkg/telemetry"
)

// LiveFeedPoller fetches the live dock feed and keeps the latest good snapshot.
// The snapshot is swapped atomically, so readers never see a mix of two polls.
// Refreshes run one at a time, so a slow poll can never overwrite a newer one.
type LiveFeedPoller struct {
	mu        sync.Mutex
	fetcher   ports.FeedFetcher
	publisher ports.FramePublisher
	snapshot  atomic.Pointer[domain.LiveSnapshot]
	now       func() time.Time
}

// NewLiveFeedPoller creates a poller. publisher may be nil.
func NewLiveFeedPoller(fetcher ports.FeedFetcher, publisher ports.FramePublisher) *LiveFeedPoller {
	p := &LiveFeedPoller{fetcher: fetcher, publisher: publisher, now: time.Now}
	p.snapshot.Store(&domain.LiveSnapshot{})
	return p
}

// Snapshot returns the last successfully decoded poll (empty before the first).
func (p *LiveFeedPoller) Snapshot() domain.LiveSnapshot {
	return *p.snapshot.Load()
}

// Refresh fetches and decodes the feed once. On success the snapshot is
// replaced wholesale; on failure the previous snapshot stays and a
// *domain.FetchError is returned. Concurrent calls queue behind each other.
func (p *LiveFeedPoller) Refresh(ctx context.Context) ([]domain.LiveSite, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, span := telemetry.Tracer("usecases").Start(ctx, telemetry.SpanFeedRefresh)
	defer span.End()

	start := p.now()
	defer func() {
		metrics.FeedPollDuration.Observe(time.Since(start).Seconds())
	}()

	body, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return nil, p.fail(span, p.asFetchError(err))
	}

	sites, dropped, err := DecodeFeed(body)
	if err != nil {
		return nil, p.fail(span, &domain.FetchError{URL: p.fetcher.Endpoint(), Err: err})
	}

	for _, d := range dropped {
		slog.Debug("live feed record dropped", "error", d)
	}
	metrics.FeedRecordsDropped.Add(float64(len(dropped)))

	snap := &domain.LiveSnapshot{Sites: sites, FetchedAt: p.now(), Dropped: len(dropped)}
	p.snapshot.Store(snap)
	metrics.LiveSites.Set(float64(len(sites)))

	span.SetAttributes(
		attribute.Int("feed.sites", len(sites)),
		attribute.Int("feed.dropped", len(dropped)),
	)
	slog.Info("live feed refreshed", "sites", len(sites), "dropped", len(dropped))

	if p.publisher != nil {
		if err := p.publisher.PublishLiveSnapshot(ctx, snap); err != nil {
			slog.Warn("publish live snapshot", "error", err)
		}
	}

	return snap.Sites, nil
}

func (p *LiveFeedPoller) asFetchError(err error) *domain.FetchError {
	var fe *domain.FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &domain.FetchError{URL: p.fetcher.Endpoint(), Err: err}
}

func (p *LiveFeedPoller) fail(span trace.Span, err *domain.FetchError) error {
	metrics.FeedPollErrors.Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, "fetch failed")
	slog.Warn("live feed refresh failed, keeping last snapshot",
		"error", err,
		"sites", len(p.snapshot.Load().Sites),
	)
	return err
}
