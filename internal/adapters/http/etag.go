package http

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ETagMiddleware tags successful JSON GET responses with a weak ETag and
// answers 304 when the client already holds that version. Clients polling a
// session snapshot only pay for changes.
func ETagMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}

		if c.Method() != fiber.MethodGet || c.Response().StatusCode() != fiber.StatusOK {
			return nil
		}
		ct := c.Response().Header.ContentType()
		if !bytes.Contains(ct, []byte("json")) {
			return nil
		}
		body := c.Response().Body()
		if len(body) == 0 {
			return nil
		}

		h := sha256.Sum256(body)
		etag := `W/"` + hex.EncodeToString(h[:8]) + `"`
		c.Set(fiber.HeaderETag, etag)

		for _, candidate := range strings.Split(c.Get(fiber.HeaderIfNoneMatch), ",") {
			if strings.TrimSpace(candidate) == etag {
				c.Status(fiber.StatusNotModified)
				c.Response().ResetBody()
				return nil
			}
		}
		return nil
	}
}
