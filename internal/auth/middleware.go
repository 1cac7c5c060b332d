package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/eaata/helpdesk/pkg/util/errorutil"
)

const claimsKey = "auth_claims"

// RequireAdmin validates bearer tokens and admits admin callers only.
// With no secret configured every request is refused.
func RequireAdmin(tokens *TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !tokens.Enabled() {
			return apperrors.NewForbidden("admin access is not configured")
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return apperrors.NewUnauthorized("missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return apperrors.NewUnauthorized("invalid authorization header")
		}

		claims, err := tokens.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			return apperrors.NewUnauthorized("invalid token")
		}
		if claims.Role != RoleAdmin {
			return apperrors.NewForbidden("admin role required")
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// ClaimsFromContext retrieves the authenticated claims.
func ClaimsFromContext(c *fiber.Ctx) (*Claims, bool) {
	val := c.Locals(claimsKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(*Claims)
	return claims, ok
}
