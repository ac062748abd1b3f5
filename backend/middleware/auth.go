package middleware

import (
	"context"
	"errors"

	"eduhub/backend/config"
	"eduhub/backend/models"
	"eduhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// UserIDKey is the fiber.Locals key holding the authenticated user id.
const UserIDKey = "userID"

type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}
		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware(users UserFinder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(UserIDKey).(uint)
		if !ok || userID == 0 {
			return utils.Unauthorized(c, "Unauthorized")
		}

		user, err := users.FindByID(c.UserContext(), userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.Unauthorized(c, "Unauthorized")
			}
			return utils.InternalServerError(c, "Internal server error")
		}
		if user.Role != models.RoleAdmin {
			return utils.Forbidden(c, "Forbidden - Admin access required")
		}

		return c.Next()
	}
}

// CurrentUserID returns the id stored by AuthMiddleware, or 0.
func CurrentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(UserIDKey).(uint)
	return id
}
