package handlers

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/fbscheduler/configs"
	"github.com/maheshrc27/fbscheduler/internal/transfer"
	"github.com/maheshrc27/fbscheduler/pkg/utils"
	"golang.org/x/crypto/bcrypt"
)

const dashboardTokenTTL = 24 * time.Hour

type AuthHandler struct {
	cfg config.Config
}

func NewAuthHandler(cfg config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req transfer.DashboardLogin
	if valid, err := parseBody(c, &req); !valid {
		return err
	}

	if !h.passwordMatches(req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  StatusError,
			"message": "Invalid password",
		})
	}

	token, err := utils.GenerateToken(h.cfg.SecretKey, transfer.ScopeDashboard, dashboardTokenTTL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  StatusError,
			"message": "something went wrong",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
		Expires:  time.Now().Add(dashboardTokenTTL),
	})

	return ok(c, fiber.StatusOK, fiber.Map{"message": "Logged in"})
}

// passwordMatches accepts DASHBOARD_PASSWORD either as a bcrypt hash or as
// plain text.
func (h *AuthHandler) passwordMatches(password string) bool {
	stored := h.cfg.DashboardPassword
	if stored == "" {
		return false
	}
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:   h.cfg.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	return ok(c, fiber.StatusOK, fiber.Map{"message": "Logged out"})
}
