package auth

import (
	"github.com/gofiber/fiber/v2"

	util "github.com/mfrelance/workflow-service/pkg/util"
)

// RequireAdmin ensures the authenticated caller holds the admin flag.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return util.NewUnauthorized("authentication required")
		}
		if !actor.Admin {
			return util.NewForbidden("admin role required")
		}
		return c.Next()
	}
}
