package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// readyCheck reports "" when healthy, a reason otherwise. skip means the
// backing service is not configured and must not fail readiness.
type readyCheck struct {
	name string
	run  func(ctx context.Context) (reason string, skip bool)
}

// HealthHandler is the liveness probe. It also echoes where the map currently
// stands so an operator can tell a stuck loop from a healthy one.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		f := deps.Session.Frame()
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"uptime":   time.Since(startedAt).String(),
			"frame":    f.Seq,
			"location": f.Location.State,
		})
	}
}

// ReadyHandler reports ready once the live feed has been fetched at least
// once and the optional backing services answer.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	checks := []readyCheck{
		{name: "feed", run: func(context.Context) (string, bool) {
			if deps.Feed.Snapshot().FetchedAt.IsZero() {
				return "no snapshot yet", false
			}
			return "", false
		}},
		{name: "nats", run: func(context.Context) (string, bool) {
			if deps.NATS == nil {
				return "", true
			}
			if !deps.NATS.IsConnected() {
				return "disconnected", false
			}
			return "", false
		}},
		{name: "cache", run: func(ctx context.Context) (string, bool) {
			if deps.Cache == nil {
				return "", true
			}
			if err := deps.Cache.Ping(ctx); err != nil {
				return "error: " + err.Error(), false
			}
			return "", false
		}},
	}

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		results := make(map[string]string, len(checks))
		ready := true
		for _, chk := range checks {
			reason, skip := chk.run(ctx)
			switch {
			case skip:
				results[chk.name] = "not configured"
			case reason != "":
				results[chk.name] = reason
				ready = false
			default:
				results[chk.name] = "ok"
			}
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"checks": results,
			})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": results})
	}
}
