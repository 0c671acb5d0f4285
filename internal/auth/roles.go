package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tickitpro/ticket-service/internal/domain"
	apperrors "github.com/tickitpro/ticket-service/pkg/util"
)

// RequireRole ensures the principal holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.User.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireSelfOrRole allows access when the caller targets their own record
// (path parameter "id") or holds one of the allowed roles.
func RequireSelfOrRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.User.ID == c.Params("id") {
			return c.Next()
		}
		if _, exists := allowedSet[principal.User.Role]; exists {
			return c.Next()
		}
		return apperrors.NewForbidden("insufficient role")
	}
}
