package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/Singularity-v/MAP/internal/pkg/metrics"
)

// requestTimeout bounds every REST call. A manual feed refresh is the slowest.
const requestTimeout = 20 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 300 requests per minute per IP. Drift reports arrive
	// on every pan, so this is looser than a plain read API would be.
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/frame", timeout.NewWithContext(FrameHandler(deps), requestTimeout))
	v1.Get("/viewport", timeout.NewWithContext(ViewportHandler(deps), requestTimeout))
	v1.Post("/viewport/drift", timeout.NewWithContext(DriftHandler(deps), requestTimeout))
	v1.Get("/markers", timeout.NewWithContext(MarkersHandler(deps), requestTimeout))
	v1.Get("/sites/nearby", timeout.NewWithContext(NearbySitesHandler(deps), requestTimeout))
	v1.Get("/sites/static", timeout.NewWithContext(StaticSitesHandler(deps), requestTimeout))
	v1.Get("/sites/live", timeout.NewWithContext(LiveSitesHandler(deps), requestTimeout))
	v1.Get("/location", timeout.NewWithContext(LocationHandler(deps), requestTimeout))
	v1.Post("/location/recenter", timeout.NewWithContext(RecenterHandler(deps), requestTimeout))
	v1.Get("/feed/status", timeout.NewWithContext(FeedStatusHandler(deps), requestTimeout))
	v1.Post("/feed/refresh", timeout.NewWithContext(FeedRefreshHandler(deps), requestTimeout))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps)))
}
