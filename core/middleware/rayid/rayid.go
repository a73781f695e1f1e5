package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// HeaderName carries the ray ID on requests and responses.
	HeaderName = "X-Ray-ID"
	// LocalKey is the fiber local holding the ray ID.
	LocalKey = "ray_id"
)

// New returns middleware that tags every request with a ray ID. An incoming
// X-Ray-ID header is reused, otherwise a new UUID is generated.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(LocalKey, id)
		c.Set(HeaderName, id)
		return c.Next()
	}
}
