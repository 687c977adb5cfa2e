// Package feed fetches the live dock-availability feed over HTTP.
package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/Singularity-v/MAP/internal/core/domain"
)

const userAgent = "mapd/1.0"

// Client implements ports.FeedFetcher on top of fasthttp.
type Client struct {
	url     string
	timeout time.Duration
	http    *fasthttp.Client
}

// NewClient creates a feed client for url. timeout bounds a single fetch when
// the caller's context has no earlier deadline.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:     url,
		timeout: timeout,
		http: &fasthttp.Client{
			Name:                userAgent,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
	}
}

// Endpoint returns the feed URL.
func (c *Client) Endpoint() string {
	return c.url
}

// Fetch performs one GET and returns the body of a 2xx response.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.FetchError{URL: c.url, Err: err}
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
		}
		return nil, &domain.FetchError{URL: c.url, Err: err}
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return nil, &domain.FetchError{
			URL:    c.url,
			Status: status,
			Err:    fmt.Errorf("unexpected status %s", fasthttp.StatusMessage(status)),
		}
	}

	// resp is returned to the pool, so the body must be copied out.
	body := append([]byte(nil), resp.Body()...)
	return body, nil
}
