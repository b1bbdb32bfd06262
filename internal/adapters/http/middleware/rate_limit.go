package middleware

import (
	"errors"
	"log"

	"affiliatehub/internal/pkg/ratelimit"
	"affiliatehub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// RateLimit rejects a client address once it exceeds the limiter's window budget.
// Store failures let the request through.
func RateLimit(limiter *ratelimit.Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := limiter.Check(c.UserContext(), c.IP())
		switch {
		case err == nil:
			return c.Next()
		case errors.Is(err, ratelimit.ErrLimitExceeded):
			return response.TooManyRequests(c, "Too many attempts, please try again later")
		default:
			log.Printf("⚠️ Rate limit store error: %v", err)
			return c.Next()
		}
	}
}
