package middleware

import (
	"errors"
	"strings"

	"cif-onboarding/internal/core/domain"
	"cif-onboarding/internal/pkg/jwt"
	"cif-onboarding/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// extractToken reads the access token from the access_token cookie, the
// legacy token cookie or the Authorization header, in that order
func extractToken(c *fiber.Ctx) string {
	if token := c.Cookies("access_token"); token != "" {
		return token
	}
	if token := c.Cookies("token"); token != "" {
		return token
	}
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// AuthMiddleware resolves the caller before any handler runs
func AuthMiddleware(tokens *jwt.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := tokens.Resolve(extractToken(c))
		if err != nil {
			switch {
			case errors.Is(err, jwt.ErrTokenNotPresent):
				return response.Unauthorized(c, "Access token required")
			case errors.Is(err, jwt.ErrTokenExpired):
				return response.Unauthorized(c, "Access token expired")
			default:
				return response.Unauthorized(c, "Invalid access token")
			}
		}

		c.Locals(principalKey, principal)
		c.Locals("userID", principal.Claims.UserID)
		c.Locals("recordID", principal.SubjectID)
		c.Locals("email", principal.Claims.Email)
		c.Locals("role", principal.Claims.Role)

		return c.Next()
	}
}

// PrincipalFrom returns the principal stored by AuthMiddleware
func PrincipalFrom(c *fiber.Ctx) (*jwt.Principal, bool) {
	principal, ok := c.Locals(principalKey).(*jwt.Principal)
	return principal, ok && principal != nil
}

// RoleMiddleware creates role-based authorization middleware
func RoleMiddleware(allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, allowedRole := range allowedRoles {
			if role == string(allowedRole) {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// ApplicantOnly allows callers that own an onboarding record
func ApplicantOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFrom(c)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		if principal.Claims.Role != string(domain.RoleApplicant) || principal.SubjectID == 0 {
			return response.Forbidden(c, "Only applicants can submit onboarding data")
		}
		return c.Next()
	}
}

// AdminOnly middleware allows only ADMIN role
func AdminOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleAdmin)
}

// OfficerOrAdmin middleware allows OFFICER or ADMIN roles
func OfficerOrAdmin() fiber.Handler {
	return RoleMiddleware(domain.RoleOfficer, domain.RoleAdmin)
}
