package middleware

import (
	authsvc "stablebricks-backend/internal/application/auth"
	"stablebricks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const (
	userLocal      = "user"
	principalLocal = "principal"
)

// RequireAuth rejects requests without a valid session user and attaches the Principal.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := authsvc.PrincipalFromSession(c.Locals(userLocal))
		if err != nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		c.Locals(principalLocal, p)
		return c.Next()
	}
}

// GetUser returns the raw session user (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// CurrentPrincipal returns the caller, resolving it from the session user when RequireAuth did not run.
func CurrentPrincipal(c *fiber.Ctx) (*authsvc.Principal, bool) {
	if p, ok := c.Locals(principalLocal).(*authsvc.Principal); ok && p != nil {
		return p, true
	}
	p, err := authsvc.PrincipalFromSession(c.Locals(userLocal))
	if err != nil {
		return nil, false
	}
	c.Locals(principalLocal, p)
	return p, true
}
