package auth

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// HeaderName is the request header carrying the API key.
const HeaderName = "X-API-Key"

// Config holds the accepted API key. An empty key disables the check.
type Config struct {
	ApiKey string
}

// New returns middleware that rejects requests without the configured API key.
// The key is read from the X-API-Key header or the api_key query parameter.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.ApiKey == "" {
			return c.Next()
		}

		key := c.Get(HeaderName)
		if key == "" {
			key = c.Query("api_key")
		}

		if subtle.ConstantTimeCompare([]byte(key), []byte(cfg.ApiKey)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or missing API key",
			})
		}
		return c.Next()
	}
}
