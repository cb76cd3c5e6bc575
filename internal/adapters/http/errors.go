package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/sketchroute/internal/core/domain"
	"github.com/samirrijal/sketchroute/internal/pkg/logging"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
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
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, 409, "conflict", msg)
}

// errGone returns a 410 error.
func errGone(c *fiber.Ctx, msg string) error {
	return newError(c, 410, "gone", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errBadGateway returns a 502 error.
func errBadGateway(c *fiber.Ctx, msg string) error {
	return newError(c, 502, "bad_gateway", msg)
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, 503, "unavailable", msg)
}

// errFromDomain maps engine errors onto API errors. Anything unrecognised is
// an upstream failure of the route pipeline.
func errFromDomain(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return errNotFound(c, err.Error())
	case errors.Is(err, domain.ErrCandidateNotFound), errors.Is(err, domain.ErrArtifactNotFound):
		return errNotFound(c, err.Error())
	case errors.Is(err, domain.ErrArtifactRevoked), errors.Is(err, domain.ErrSessionClosed):
		return errGone(c, err.Error())
	case errors.Is(err, domain.ErrDegenerateSurface), errors.Is(err, domain.ErrInvalidCoordinate):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrFrameUnavailable):
		return errConflict(c, err.Error())
	case errors.Is(err, domain.ErrTooManySessions):
		return errUnavailable(c, err.Error())
	case errors.Is(err, domain.ErrInvalidTrack):
		return errBadGateway(c, err.Error())
	default:
		logging.FromContext(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
		return errBadGateway(c, err.Error())
	}
}
