package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mfrelance/workflow-service/internal/domain"
	util "github.com/mfrelance/workflow-service/pkg/util"
)

const (
	actorKey  = "auth_actor"
	bearerKey = "auth_bearer"
)

// Middleware validates bearer tokens and stashes the acting principal. The
// raw token is kept too; downstream directory calls to the backend are made
// on the caller's behalf with the same credential.
type Middleware struct {
	tokens *TokenManager
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager) *Middleware {
	return &Middleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return util.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return util.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return util.NewUnauthorized("invalid token")
	}

	c.Locals(actorKey, domain.Actor{UserID: claims.UserID, Admin: claims.Admin})
	c.Locals(bearerKey, parts[1])
	return c.Next()
}

// ActorFromContext retrieves the authenticated principal.
func ActorFromContext(c *fiber.Ctx) (domain.Actor, bool) {
	actor, ok := c.Locals(actorKey).(domain.Actor)
	return actor, ok
}

// BearerFromContext retrieves the raw token for backend pass-through.
func BearerFromContext(c *fiber.Ctx) string {
	bearer, _ := c.Locals(bearerKey).(string)
	return bearer
}
