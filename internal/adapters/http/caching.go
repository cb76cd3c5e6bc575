package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control on GET responses that do not set
// their own. Session state is per client and never cached by intermediaries.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if existing := string(c.Response().Header.Peek(fiber.HeaderCacheControl)); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10"
		case path == "/metrics":
			ttl = "no-cache"
		case strings.HasPrefix(path, "/v1/sessions"):
			ttl = "no-store"
		case strings.HasPrefix(path, "/v1/geocode"):
			ttl = "public, max-age=300"
		case strings.HasPrefix(path, "/docs"):
			ttl = "public, max-age=3600"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}
		return err
	}
}
