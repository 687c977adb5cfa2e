package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Singularity-v/MAP/internal/core/domain"
	"github.com/Singularity-v/MAP/internal/core/ports"
	"github.com/Singularity-v/MAP/internal/pkg/metrics"
	"github.com/Singularity-v/MAP/internal/pkg/telemetry"
)

// LocationMachine drives permission request → position read. It is the only
// component that talks to the LocationProvider; it never touches the viewport
// and reports progress as LocationEvents instead.
//
//	Idle → PermissionRequested → PermissionDenied
//	                           → PermissionGranted → Locating → Located | LocationFailed
//
// Once permission has been granted a re-trigger goes straight to Locating.
type LocationMachine struct {
	provider ports.LocationProvider

	mu        sync.Mutex
	state     domain.LocationState
	granted   bool
	observers []func(domain.LocationEvent)

	wg sync.WaitGroup
}

// NewLocationMachine creates a machine in the Idle state.
func NewLocationMachine(provider ports.LocationProvider) *LocationMachine {
	return &LocationMachine{provider: provider, state: domain.LocationIdle}
}

// OnEvent registers fn to receive every transition. Observers run on the
// acquisition goroutine and must not block.
func (m *LocationMachine) OnEvent(fn func(domain.LocationEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// State returns the current state.
func (m *LocationMachine) State() domain.LocationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Activate starts the first acquisition. It does nothing once the machine has
// left Idle.
func (m *LocationMachine) Activate(ctx context.Context) {
	m.mu.Lock()
	if m.state != domain.LocationIdle {
		m.mu.Unlock()
		return
	}
	m.start(ctx, domain.LocationPermissionRequested)
}

// Recenter re-triggers acquisition from whatever state the machine is in.
// It returns domain.ErrAcquisitionInFlight if one is already running.
func (m *LocationMachine) Recenter(ctx context.Context) error {
	m.mu.Lock()
	if m.state.InFlight() {
		m.mu.Unlock()
		return domain.ErrAcquisitionInFlight
	}
	next := domain.LocationPermissionRequested
	if m.granted {
		next = domain.LocationLocating
	}
	m.start(ctx, next)
	return nil
}

// Wait blocks until no acquisition is running.
func (m *LocationMachine) Wait() {
	m.wg.Wait()
}

// start must be called with m.mu held; it releases it.
func (m *LocationMachine) start(ctx context.Context, first domain.LocationState) {
	m.state = first
	observers := m.observers
	m.wg.Add(1)
	m.mu.Unlock()

	emit(observers, domain.LocationEvent{State: first})

	go func() {
		defer m.wg.Done()
		m.acquire(ctx, first == domain.LocationPermissionRequested)
	}()
}

func (m *LocationMachine) acquire(ctx context.Context, askPermission bool) {
	ctx, span := telemetry.Tracer("usecases").Start(ctx, telemetry.SpanLocationAcquire)
	defer span.End()

	if askPermission {
		perm, err := m.provider.RequestPermission(ctx)
		switch {
		case err != nil:
			m.finish(span, domain.LocationFailed, nil, locationError(err))
			return
		case perm != domain.PermissionGranted:
			m.mu.Lock()
			m.granted = false
			m.mu.Unlock()
			m.finish(span, domain.LocationPermissionDenied, nil, domain.ErrPermissionDenied)
			return
		}

		m.mu.Lock()
		m.granted = true
		m.mu.Unlock()
		m.transition(domain.LocationEvent{State: domain.LocationPermissionGranted})
		m.transition(domain.LocationEvent{State: domain.LocationLocating})
	}

	pos, err := m.provider.CurrentPosition(ctx)
	if err != nil {
		m.finish(span, domain.LocationFailed, nil, locationError(err))
		return
	}
	if !pos.Valid() {
		m.finish(span, domain.LocationFailed, nil,
			fmt.Errorf("%w: position %v out of range", domain.ErrLocationUnavailable, pos))
		return
	}

	m.finish(span, domain.LocationLocated, &pos, nil)
}

func (m *LocationMachine) finish(span trace.Span, state domain.LocationState, pos *domain.GeoPoint, err error) {
	span.SetAttributes(attribute.String("location.outcome", string(state)))
	metrics.LocationAcquisitions.WithLabelValues(string(state)).Inc()

	switch state {
	case domain.LocationLocated:
		slog.Info("location acquired", "lat", pos.Lat, "lng", pos.Lng)
	case domain.LocationPermissionDenied:
		slog.Warn("location permission denied")
	default:
		slog.Warn("location acquisition failed", "error", err)
	}

	m.transition(domain.LocationEvent{State: state, Position: pos, Err: err})
}

func (m *LocationMachine) transition(ev domain.LocationEvent) {
	m.mu.Lock()
	m.state = ev.State
	observers := m.observers
	m.mu.Unlock()

	emit(observers, ev)
}

func emit(observers []func(domain.LocationEvent), ev domain.LocationEvent) {
	for _, fn := range observers {
		fn(ev)
	}
}

// locationError keeps permission and capability errors recognisable and
// files everything else under ErrLocationUnavailable.
func locationError(err error) error {
	if errors.Is(err, domain.ErrLocationUnavailable) || errors.Is(err, domain.ErrLocationUnsupported) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrLocationUnavailable, err)
}
