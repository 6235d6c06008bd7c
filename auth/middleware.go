package auth

import (
	"room-lab/contract"
	"room-lab/domain"
	"room-lab/errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// IdentityKey is the fiber local holding the verified domain.Identity.
const IdentityKey = "identity"

// Middleware verifies the bearer token of a request and stores the identity in the fiber context.
// Browsers can't set headers on a websocket upgrade, so the token query parameter is accepted too.
func Middleware(verifier contract.IdentityVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if token == "" {
			token = c.Query("token")
		}
		identity, err := verifier.Verify(token)
		if err != nil {
			return err
		}
		c.Locals(IdentityKey, identity)
		return c.Next()
	}
}

// IdentityFrom returns the identity set by Middleware.
func IdentityFrom(c *fiber.Ctx) (domain.Identity, error) {
	identity, ok := c.Locals(IdentityKey).(domain.Identity)
	if !ok {
		return domain.Identity{}, errors.ErrUnauthenticated
	}
	return identity, nil
}
