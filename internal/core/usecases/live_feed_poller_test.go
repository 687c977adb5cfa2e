package usecases_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Singularity-v/MAP/internal/core/domain"
	"github.com/Singularity-v/MAP/internal/core/usecases"
)

const twoStations = `[
	{"sno":"1","sna":"A","tot":"10","sbi":"4","lat":"25.04","lng":"121.57","ar":"a"},
	{"sno":"2","sna":"B","tot":"20","sbi":"5","lat":"25.05","lng":"121.58","ar":"b"}
]`

func TestLiveFeedPoller_RefreshReplacesSnapshot(t *testing.T) {
	fetcher := &mockFetcher{fetchFn: body(twoStations)}
	pub := &mockPublisher{}
	p := usecases.NewLiveFeedPoller(fetcher, pub)

	assert.Empty(t, p.Snapshot().Sites)

	sites, err := p.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Len(t, p.Snapshot().Sites, 2)
	assert.False(t, p.Snapshot().FetchedAt.IsZero())
	require.Len(t, pub.snapshots, 1)

	fetcher.set(body(`[{"sno":"3","sna":"C","tot":"5","sbi":"1","lat":"25.06","lng":"121.59"}]`))
	_, err = p.Refresh(context.Background())
	require.NoError(t, err)

	snap := p.Snapshot()
	require.Len(t, snap.Sites, 1)
	assert.Equal(t, "3", snap.Sites[0].ID)
}

func TestLiveFeedPoller_TransportFailureKeepsLastKnownGood(t *testing.T) {
	fetcher := &mockFetcher{fetchFn: body(twoStations)}
	p := usecases.NewLiveFeedPoller(fetcher, nil)
	_, err := p.Refresh(context.Background())
	require.NoError(t, err)

	fetcher.set(func(context.Context) ([]byte, error) { return nil, errUpstream })
	sites, err := p.Refresh(context.Background())

	require.Error(t, err)
	assert.Nil(t, sites)
	var fe *domain.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "http://feed.test/stations", fe.URL)
	assert.ErrorIs(t, err, errUpstream)
	assert.Len(t, p.Snapshot().Sites, 2)
}

func TestLiveFeedPoller_KeepsFetcherFetchError(t *testing.T) {
	want := &domain.FetchError{URL: "http://feed.test/stations", Status: 503, Err: errors.New("unexpected status")}
	p := usecases.NewLiveFeedPoller(&mockFetcher{fetchFn: func(context.Context) ([]byte, error) { return nil, want }}, nil)

	_, err := p.Refresh(context.Background())

	var fe *domain.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 503, fe.Status)
}

func TestLiveFeedPoller_MalformedBodyIsFetchError(t *testing.T) {
	fetcher := &mockFetcher{fetchFn: body(twoStations)}
	p := usecases.NewLiveFeedPoller(fetcher, nil)
	_, err := p.Refresh(context.Background())
	require.NoError(t, err)

	fetcher.set(body(`{"message":"quota exceeded"}`))
	_, err = p.Refresh(context.Background())

	var fe *domain.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Len(t, p.Snapshot().Sites, 2)
}

func TestLiveFeedPoller_ConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	fetcher := &mockFetcher{fetchFn: body(twoStations)}
	p := usecases.NewLiveFeedPoller(fetcher, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				n := len(p.Snapshot().Sites)
				assert.True(t, n == 0 || n == 2, "torn snapshot of %d sites", n)
			}
		}()
	}
	for i := 0; i < 10; i++ {
		_, _ = p.Refresh(context.Background())
	}
	wg.Wait()
}

func TestLiveFeedPoller_NullBodyKeepsLastKnownGood(t *testing.T) {
	fetcher := &mockFetcher{fetchFn: body(twoStations)}
	p := usecases.NewLiveFeedPoller(fetcher, nil)
	_, err := p.Refresh(context.Background())
	require.NoError(t, err)

	fetcher.set(body(`null`))
	sites, err := p.Refresh(context.Background())

	var fe *domain.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Nil(t, sites)
	assert.Len(t, p.Snapshot().Sites, 2)
}

func TestLiveFeedPoller_OverlappingRefreshesKeepNewest(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0
	fetcher := &mockFetcher{fetchFn: func(context.Context) ([]byte, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			<-release
			return []byte(`[{"sno":"old","sna":"A","tot":"10","sbi":"1","lat":"25.04","lng":"121.57"}]`), nil
		}
		return []byte(`[{"sno":"new","sna":"A","tot":"10","sbi":"9","lat":"25.04","lng":"121.57"}]`), nil
	}}
	p := usecases.NewLiveFeedPoller(fetcher, nil)
	fetchCalls := func() int {
		mu.Lock()
		defer mu.Unlock()
		return calls
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = p.Refresh(context.Background())
	}()
	waitFor(t, func() bool { return fetchCalls() == 1 }, "first fetch started")

	go func() {
		defer wg.Done()
		_, _ = p.Refresh(context.Background())
	}()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, fetchCalls(), "second poll must wait for the first")

	close(release)
	wg.Wait()

	snap := p.Snapshot()
	require.Len(t, snap.Sites, 1)
	assert.Equal(t, "new", snap.Sites[0].ID)
}
