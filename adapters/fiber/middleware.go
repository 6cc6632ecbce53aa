package fiber

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/silid/core"
)

const (
	identityKey = "identity"
	tokenKey    = "token"

	// AuthCookie is read when no Authorization header is present.
	AuthCookie = "auth_token"
)

// RequireAuth validates the bearer token and stores the caller's identity in
// the context for downstream handlers.
func (a *Adapter) RequireAuth(c fiber.Ctx) error {
	token := extractToken(c)
	if token == "" {
		return a.handleAuthError(c, core.ErrMissingAuthHeader)
	}

	identity, err := a.auth.Verify(c.Context(), token)
	if err != nil {
		return a.handleAuthError(c, err)
	}

	c.Locals(identityKey, identity)
	c.Locals(tokenKey, token)

	return c.Next()
}

// RequireRole rejects callers whose role is not listed. It must run after RequireAuth.
func (a *Adapter) RequireRole(roles ...core.Role) fiber.Handler {
	return func(c fiber.Ctx) error {
		identity, ok := IdentityFrom(c)
		if !ok {
			return a.handleAuthError(c, core.ErrMissingAuthHeader)
		}
		if !identity.Role.In(roles...) {
			return a.handleAuthError(c, core.ErrForbidden)
		}
		return c.Next()
	}
}

// IdentityFrom returns the identity stored by RequireAuth.
func IdentityFrom(c fiber.Ctx) (*core.Identity, bool) {
	identity, ok := c.Locals(identityKey).(*core.Identity)
	return identity, ok && identity != nil
}

// extractToken extracts the authentication token from the request.
// Checks Authorization header (Bearer token) first, then falls back to cookie.
func extractToken(c fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}

	return c.Cookies(AuthCookie)
}
