package usecases_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Singularity-v/MAP/internal/core/domain"
)

// --- Mock LocationProvider ---

type mockLocationProvider struct {
	mu           sync.Mutex
	permissionFn func(ctx context.Context) (domain.Permission, error)
	positionFn   func(ctx context.Context) (domain.GeoPoint, error)
	permCalls    int
	posCalls     int
}

func (m *mockLocationProvider) RequestPermission(ctx context.Context) (domain.Permission, error) {
	m.mu.Lock()
	m.permCalls++
	m.mu.Unlock()
	if m.permissionFn != nil {
		return m.permissionFn(ctx)
	}
	return domain.PermissionGranted, nil
}

func (m *mockLocationProvider) CurrentPosition(ctx context.Context) (domain.GeoPoint, error) {
	m.mu.Lock()
	m.posCalls++
	m.mu.Unlock()
	if m.positionFn != nil {
		return m.positionFn(ctx)
	}
	return domain.GeoPoint{Lat: 25.0330, Lng: 121.5654}, nil
}

func (m *mockLocationProvider) calls() (perm, pos int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.permCalls, m.posCalls
}

func granted(context.Context) (domain.Permission, error) { return domain.PermissionGranted, nil }
func denied(context.Context) (domain.Permission, error)  { return domain.PermissionDenied, nil }

// --- Mock FeedFetcher ---

type mockFetcher struct {
	mu      sync.Mutex
	fetchFn func(ctx context.Context) ([]byte, error)
}

func (m *mockFetcher) Fetch(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	fn := m.fetchFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return []byte(`[]`), nil
}

func (m *mockFetcher) Endpoint() string { return "http://feed.test/stations" }

func (m *mockFetcher) set(fn func(ctx context.Context) ([]byte, error)) {
	m.mu.Lock()
	m.fetchFn = fn
	m.mu.Unlock()
}

func body(s string) func(context.Context) ([]byte, error) {
	return func(context.Context) ([]byte, error) { return []byte(s), nil }
}

var errUpstream = errors.New("connection refused")

// --- Mock FramePublisher ---

type mockPublisher struct {
	mu        sync.Mutex
	frames    []domain.Frame
	snapshots []domain.LiveSnapshot
}

func (m *mockPublisher) PublishFrame(ctx context.Context, f *domain.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, *f)
	return nil
}

func (m *mockPublisher) PublishLiveSnapshot(ctx context.Context, s *domain.LiveSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, *s)
	return nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("valkey nil message")
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Static dataset ---

type rawDataset []byte

func (d rawDataset) Bytes() []byte { return d }

const testStations = `[
  {"id":"018","line":"BL","name":"市政府","address":"110台北市信義區忠孝東路五段2號","latitude":25.041171,"longitude":121.565228},
  {"id":"019","line":"BL","name":"永春","address":"110台北市信義區忠孝東路五段455號","latitude":25.040859,"longitude":121.576293},
  {"id":"010","line":"BL","name":"忠孝復興","address":"106台北市大安區忠孝東路三段302號","latitude":25.041629,"longitude":121.543767},
  {"id":"010","line":"BR","name":"忠孝復興","address":"106台北市大安區忠孝東路三段302號","latitude":25.041629,"longitude":121.543767}
]`

// --- helpers ---

// waitFor polls cond until it holds or fails the test after a second.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}
