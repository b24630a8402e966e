package auth

import (
	"strings"

	"techniknet-backend/internal/config"
	"techniknet-backend/internal/database"
	"techniknet-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserRoleKey = "user_role"
	CtxUsernameKey = "username"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header missing")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header must be 'Bearer <token>'")
		}

		claims, err := ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxUsernameKey, claims.Username)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Role information missing")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "You do not have permission to perform this action")
	}
}

// RequireSuperuser is RequireRole(models.RoleSuperuser).
func RequireSuperuser() fiber.Handler {
	return RequireRole(models.RoleSuperuser)
}

func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(CtxUserIDKey).(uint)
	return id
}

func Username(c *fiber.Ctx) string {
	name, _ := c.Locals(CtxUsernameKey).(string)
	return name
}

func IsSuperuser(c *fiber.Ctx) bool {
	role, _ := c.Locals(CtxUserRoleKey).(models.UserRole)
	return role == models.RoleSuperuser
}

// CurrentUser loads the authenticated user. A token whose user no longer
// exists is rejected with 401.
func CurrentUser(c *fiber.Ctx) (*models.User, error) {
	var user models.User
	if err := database.DB.First(&user, UserID(c)).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "User no longer exists")
	}
	return &user, nil
}
