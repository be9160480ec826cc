package api

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"formdesk/internal/listing"
)

// RequireKey returns middleware enforcing the shared-secret check. The key
// is read from the X-API-Key header, falling back to the api_key query
// parameter. An empty configured key disables the check entirely.
func RequireKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" {
			return c.Next()
		}
		got := c.Get("X-API-Key")
		if got == "" {
			got = c.Query("api_key")
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			return listing.ForbiddenError("Invalid API key")
		}
		return c.Next()
	}
}
