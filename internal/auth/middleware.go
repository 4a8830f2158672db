package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Middleware resolves the request's principal and stores it in locals.
// The session cookie wins; a Bearer token is consulted only when no valid
// session exists. Requests without either proceed unauthenticated, so the
// authorization gate can answer with 401 per route.
func Middleware(sessions *SessionStore, jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := c.Cookies(CookieName); token != "" {
			p, err := sessions.Resolve(c.Context(), token)
			if err != nil {
				return err
			}
			if p != nil {
				c.Locals("principal", p)
				return c.Next()
			}
		}

		if header := c.Get("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				if p, err := VerifyToken(parts[1], jwtSecret); err == nil {
					c.Locals("principal", p)
				}
			}
		}

		return c.Next()
	}
}
