package http

import "github.com/gofiber/fiber/v2"

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, conflict, feed_unavailable, ...
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusConflict, "conflict", msg)
}

// errFeedUnavailable returns a 502 for a failed upstream feed fetch.
func errFeedUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadGateway, "feed_unavailable", msg)
}

// errUnavailable returns a 503 when the map session has shut down.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, "unavailable", msg)
}
