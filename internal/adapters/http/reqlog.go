package http

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

type loggerKey struct{}

// RequestIDLogMiddleware puts a request-scoped logger carrying the Fiber
// request ID into the user context, where handlers pick it up with
// LoggerFromCtx.
func RequestIDLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid, _ := c.Locals("requestid").(string)
		if rid == "" {
			return c.Next()
		}

		reqLogger := slog.Default().With("request_id", rid)
		c.SetUserContext(context.WithValue(c.UserContext(), loggerKey{}, reqLogger))
		return c.Next()
	}
}

// LoggerFromCtx extracts the per-request slog.Logger from a context.
// Falls back to the default logger if none is set.
func LoggerFromCtx(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
