package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const localsKey = "cv.identity"

// Middleware authenticates requests with v. A nil verifier lets every
// request through as the local identity.
func Middleware(v Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if v == nil {
			c.Locals(localsKey, Identity{})
			return c.Next()
		}
		h := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, ErrMissingToken.Error())
		}
		id, err := v.Verify(strings.TrimSpace(token))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		c.Locals(localsKey, id)
		return c.Next()
	}
}

// FromCtx returns the identity set by Middleware.
func FromCtx(c *fiber.Ctx) Identity {
	id, _ := c.Locals(localsKey).(Identity)
	return id
}
