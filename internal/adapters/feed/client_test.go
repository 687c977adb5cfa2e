package feed_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Singularity-v/MAP/internal/adapters/feed"
	"github.com/Singularity-v/MAP/internal/core/domain"
)

func TestClient_FetchOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"sno":"1"}]`))
	}))
	defer srv.Close()

	c := feed.NewClient(srv.URL, time.Second)
	body, err := c.Fetch(context.Background())

	require.NoError(t, err)
	assert.JSONEq(t, `[{"sno":"1"}]`, string(body))
	assert.Equal(t, srv.URL, c.Endpoint())
}

func TestClient_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := feed.NewClient(srv.URL, time.Second).Fetch(context.Background())

	var fe *domain.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusServiceUnavailable, fe.Status)
	assert.Equal(t, srv.URL, fe.URL)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := feed.NewClient(url, 500*time.Millisecond).Fetch(context.Background())

	var fe *domain.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Zero(t, fe.Status)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := feed.NewClient(srv.URL, 50*time.Millisecond).Fetch(context.Background())

	var fe *domain.FetchError
	require.True(t, errors.As(err, &fe))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := feed.NewClient("http://127.0.0.1:1", time.Second).Fetch(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}
