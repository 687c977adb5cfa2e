package usecases

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Singularity-v/MAP/internal/core/domain"
	"github.com/Singularity-v/MAP/internal/core/ports"
	"github.com/Singularity-v/MAP/internal/pkg/observable"
)

// SessionConfig holds the startup defaults of a map session.
type SessionConfig struct {
	Viewport        domain.Viewport
	DriftThreshold  float64
	User            domain.UserMarker
	RefreshInterval time.Duration // 0 = fetch the live feed once at startup
}

// MapSession is the single logical thread of the map core. Run consumes one
// event at a time; it is the only writer of the viewport and the user marker
// and it republishes a Frame after every change.
type MapSession struct {
	cfg       SessionConfig
	statics   []domain.StaticSite
	poller    *LiveFeedPoller
	locator   *LocationMachine
	publisher ports.FramePublisher

	// owned by the Run goroutine
	viewport   *ViewportController
	user       domain.UserMarker
	locState   domain.LocationState
	notice     *domain.Notice
	feedErr    string
	feedNotice *domain.Notice
	seq        uint64

	// held from fetch until the outcome is queued, so results reach the
	// loop in the order the polls finished
	refreshMu sync.Mutex

	events    chan any
	locEvents chan domain.LocationEvent
	done      chan struct{}
	frame     *observable.Value[domain.Frame]
	now       func() time.Time
}

type driftRequest struct {
	ev    domain.DriftEvent
	reply chan bool
}

type recenterRequest struct {
	reply chan error
}

type feedResult struct {
	err error
}

type refreshTick struct{}

// NewMapSession wires the components together. publisher may be nil.
func NewMapSession(
	cfg SessionConfig,
	store *GeodataStore,
	poller *LiveFeedPoller,
	locator *LocationMachine,
	publisher ports.FramePublisher,
) *MapSession {
	s := &MapSession{
		cfg:       cfg,
		statics:   store.Sites(),
		poller:    poller,
		locator:   locator,
		publisher: publisher,
		viewport:  NewViewportController(cfg.Viewport, cfg.DriftThreshold),
		user:      cfg.User,
		locState:  locator.State(),
		events:    make(chan any, 64),
		locEvents: make(chan domain.LocationEvent, 16),
		done:      make(chan struct{}),
		now:       time.Now,
	}
	s.frame = observable.New(s.buildFrame())

	// Recenter emits from inside the loop, so location events get their own
	// queue. At most one acquisition runs at a time, which bounds it.
	locator.OnEvent(func(ev domain.LocationEvent) {
		select {
		case s.locEvents <- ev:
		case <-s.done:
		}
	})
	return s
}

// Frame returns the latest published frame.
func (s *MapSession) Frame() domain.Frame {
	return s.frame.Get()
}

// Subscribe calls fn with every new frame until the returned func is called.
func (s *MapSession) Subscribe(fn func(domain.Frame)) (cancel func()) {
	return s.frame.Subscribe(fn)
}

// AttachSurface hands every new frame to a render surface.
func (s *MapSession) AttachSurface(r ports.RenderSurface) (detach func()) {
	r.Render(s.Frame())
	return s.frame.Subscribe(r.Render)
}

// Run starts location acquisition and the live feed, then processes events
// until ctx is cancelled.
func (s *MapSession) Run(ctx context.Context) error {
	defer close(s.done)

	s.locator.Activate(ctx)
	go s.refresh(ctx)

	if s.cfg.RefreshInterval > 0 {
		go s.tick(ctx, s.cfg.RefreshInterval)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-s.locEvents:
			s.handle(ctx, ev)
		case ev := <-s.events:
			s.handle(ctx, ev)
		}
	}
}

// Drift reports a region change from the render surface and returns whether
// it was taken as a user pan.
func (s *MapSession) Drift(ctx context.Context, ev domain.DriftEvent) (bool, error) {
	reply := make(chan bool, 1)
	if err := s.send(ctx, driftRequest{ev: ev, reply: reply}); err != nil {
		return false, err
	}
	select {
	case ok := <-reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-s.done:
		return false, ErrSessionClosed
	}
}

// Recenter is the manual recenter control.
func (s *MapSession) Recenter(ctx context.Context) error {
	reply := make(chan error, 1)
	if err := s.send(ctx, recenterRequest{reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSessionClosed
	}
}

// RefreshFeed polls the live feed on the caller's goroutine and folds the
// outcome into the session. On failure the last snapshot stays on the map.
func (s *MapSession) RefreshFeed(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.pollOnce(ctx)
}

// ErrSessionClosed is returned by requests made after Run has returned.
var ErrSessionClosed = errors.New("map session closed")

// refresh is the background poll. A tick that lands while another poll is
// still running is skipped.
func (s *MapSession) refresh(ctx context.Context) {
	if !s.refreshMu.TryLock() {
		slog.Debug("live feed poll still running, skipping tick")
		return
	}
	defer s.refreshMu.Unlock()
	_ = s.pollOnce(ctx)
}

func (s *MapSession) pollOnce(ctx context.Context) error {
	_, err := s.poller.Refresh(ctx)
	s.post(feedResult{err: err})
	return err
}

func (s *MapSession) tick(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.post(refreshTick{})
		}
	}
}

func (s *MapSession) send(ctx context.Context, ev any) error {
	select {
	case s.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSessionClosed
	}
}

func (s *MapSession) post(ev any) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

func (s *MapSession) handle(ctx context.Context, ev any) {
	switch ev := ev.(type) {
	case driftRequest:
		accepted := s.viewport.HandleDrift(ev.ev)
		if accepted {
			s.publish(ctx)
		}
		ev.reply <- accepted

	case recenterRequest:
		err := s.locator.Recenter(ctx)
		ev.reply <- err

	case domain.LocationEvent:
		s.applyLocation(ev)
		s.publish(ctx)

	case feedResult:
		if ev.err != nil {
			s.feedErr = ev.err.Error()
			if s.feedNotice == nil {
				s.feedNotice = s.newNotice(domain.NoticeFeedUnavailable, "Live availability could not be refreshed")
			}
		} else {
			s.feedErr = ""
			s.feedNotice = nil
		}
		s.publish(ctx)

	case refreshTick:
		go s.refresh(ctx)
	}
}

func (s *MapSession) applyLocation(ev domain.LocationEvent) {
	s.locState = ev.State

	switch ev.State {
	case domain.LocationLocated:
		if ev.Position != nil {
			s.user.Position = *ev.Position
			s.viewport.HandleLocation(*ev.Position)
		}
		s.notice = nil
	case domain.LocationPermissionDenied:
		s.notice = s.newNotice(domain.NoticePermissionDenied, "Permission to access location was denied")
	case domain.LocationFailed:
		msg := "Location is currently unavailable"
		if errors.Is(ev.Err, domain.ErrLocationUnsupported) {
			msg = "Location is not supported on this device"
		}
		s.notice = s.newNotice(domain.NoticeLocationUnavailable, msg)
	}
}

func (s *MapSession) newNotice(kind domain.NoticeKind, msg string) *domain.Notice {
	return &domain.Notice{ID: uuid.NewString(), Kind: kind, Message: msg, At: s.now()}
}

func (s *MapSession) buildFrame() domain.Frame {
	snap := s.poller.Snapshot()
	vp := s.viewport.Viewport()

	s.seq++
	return domain.Frame{
		Seq:      s.seq,
		Viewport: vp,
		Markers:  Project(s.user, s.statics, snap.Sites),
		Location: domain.LocationStatus{
			State:  s.locState,
			Notice: s.notice,
		},
		ShowRecenter: !vp.Anchored,
		Feed: domain.FeedStatus{
			UpdatedAt: snap.FetchedAt,
			Sites:     len(snap.Sites),
			Dropped:   snap.Dropped,
			LastError: s.feedErr,
			Notice:    s.feedNotice,
		},
	}
}

func (s *MapSession) publish(ctx context.Context) {
	f := s.buildFrame()
	s.frame.Set(f)

	if s.publisher == nil {
		return
	}
	go func() {
		if err := s.publisher.PublishFrame(ctx, &f); err != nil {
			slog.Warn("publish frame", "seq", f.Seq, "error", err)
		}
	}()
}
