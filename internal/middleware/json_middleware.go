package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RequireJSON is a Fiber middleware rejecting request bodies that are not JSON.
func RequireJSON() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead {
			return c.Next()
		}

		contentType := strings.ToLower(c.Get(fiber.HeaderContentType))
		if !strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"message": "Content-Type must be application/json",
			})
		}

		return c.Next()
	}
}
