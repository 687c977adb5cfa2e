package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control on GET responses that did not set it.
// Anything derived from the live frame must be revalidated; the bundled
// dataset is stable for the life of the process.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if len(c.Response().Header.Peek(fiber.HeaderCacheControl)) > 0 {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10"

		case path == "/metrics":
			ttl = "no-cache"

		case strings.HasPrefix(path, "/v1/sites/static"):
			ttl = "public, max-age=3600"

		case strings.HasPrefix(path, "/v1/sites/live"), path == "/v1/feed/status":
			ttl = "public, max-age=30"

		case strings.HasPrefix(path, "/v1/sites/nearby"):
			ttl = "private, max-age=30"

		case strings.HasPrefix(path, "/v1/"):
			// frame, viewport, markers, location
			ttl = "no-cache"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}
