package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapd",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mapd",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Live feed
	FeedPollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mapd",
		Subsystem: "feed",
		Name:      "poll_duration_seconds",
		Help:      "Duration of live feed refreshes",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	FeedPollErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mapd",
		Subsystem: "feed",
		Name:      "poll_errors_total",
		Help:      "Total live feed refreshes that kept the last-known-good snapshot",
	})

	FeedRecordsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mapd",
		Subsystem: "feed",
		Name:      "records_dropped_total",
		Help:      "Total malformed live feed records dropped during decoding",
	})

	LiveSites = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapd",
		Subsystem: "feed",
		Name:      "live_sites",
		Help:      "Number of live sites in the current snapshot",
	})

	// Map state
	LocationAcquisitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapd",
		Subsystem: "location",
		Name:      "acquisitions_total",
		Help:      "Location acquisitions by final state",
	}, []string{"outcome"})

	ViewportDrift = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapd",
		Subsystem: "viewport",
		Name:      "drift_total",
		Help:      "Drift events reported by the render surface",
	}, []string{"result"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapd",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapd",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapd",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
