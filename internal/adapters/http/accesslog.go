package http

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// AccessLogMiddleware logs HTTP requests with structured slog output.
// Probe and scrape traffic is logged at debug level.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		status := c.Response().StatusCode()
		requestID, _ := c.Locals("requestid").(string)

		attrs := []slog.Attr{
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_out", len(c.Response().Body())),
			slog.String("request_id", requestID),
		}

		level := slog.LevelInfo
		switch {
		case err != nil:
			attrs = append(attrs, slog.String("error", err.Error()))
			level = slog.LevelError
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		case isProbe(path):
			level = slog.LevelDebug
		}

		slog.LogAttrs(c.UserContext(), level, method+" "+path, attrs...)
		return err
	}
}

func isProbe(path string) bool {
	return path == "/metrics" || strings.HasPrefix(path, "/v1/health") || strings.HasPrefix(path, "/v1/ready")
}
