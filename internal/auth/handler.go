package auth

import (
	"strings"

	"techniknet-backend/internal/config"
	"techniknet-backend/internal/database"
	"techniknet-backend/internal/logger"
	"techniknet-backend/internal/models"
	"techniknet-backend/internal/request"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type RegisterSuperuserRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	// Login is a username or an email address.
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HashPassword is shared with team member creation.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// RegisterSuperuserHandler bootstraps the first superuser; it is closed once one exists.
func RegisterSuperuserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterSuperuserRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}

		body.Username = strings.TrimSpace(body.Username)
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var count int64
		if err := database.DB.Model(&models.User{}).
			Where("role = ?", models.RoleSuperuser).
			Count(&count).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not check existing users")
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "A superuser already exists")
		}

		hash, err := HashPassword(body.Password)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
		}

		user := models.User{
			Username:     body.Username,
			Email:        body.Email,
			PasswordHash: hash,
			Role:         models.RoleSuperuser,
		}
		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "Username or email already in use")
		}

		logger.L.Info("superuser registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
		return c.Status(fiber.StatusCreated).JSON(user)
	}
}

func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := request.Bind(c, &body); err != nil {
			return err
		}

		login := strings.TrimSpace(body.Login)
		var user models.User
		if err := database.DB.
			Where("username = ? OR email = ?", login, strings.ToLower(login)).
			First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid username or password")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid username or password")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  user,
		})
	}
}

// MeHandler returns the user with the teams it belongs to.
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := CurrentUser(c)
		if err != nil {
			return err
		}

		var teams []models.Team
		if err := database.DB.
			Joins("JOIN team_members ON team_members.team_id = teams.id").
			Where("team_members.user_id = ?", user.ID).
			Order("teams.name").
			Find(&teams).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load teams")
		}

		return c.JSON(fiber.Map{
			"user":  user,
			"teams": teams,
		})
	}
}
