package requestid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const Header = "X-Request-ID"

// New assigns each request a correlation id, honoring one supplied by
// the caller.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals("request_id", id)
		c.Set(Header, id)

		return c.Next()
	}
}

// FromCtx returns the request's correlation id, or "".
func FromCtx(c *fiber.Ctx) string {
	id, _ := c.Locals("request_id").(string)
	return id
}
