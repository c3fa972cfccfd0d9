package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/hivectl/backend/internal/config"
)

const (
	LocalOperator = "operator"
	LocalAdmin    = "admin"

	defaultOperator = "operator"
)

func bearerToken(c *fiber.Ctx, header string) string {
	if token := c.Get(header); token != "" {
		return token
	}
	const prefix = "Bearer "
	if auth := c.Get("Authorization"); strings.HasPrefix(auth, prefix) {
		return auth[len(prefix):]
	}
	// Browsers cannot set headers on websocket upgrades.
	return c.Query("token")
}

func tokenEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// OperatorAuth admits holders of the admin or operator key and stores the
// operator name and admin flag in locals. With no keys configured every
// caller is an admin.
func OperatorAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminKey := cfg.Auth.AdminAPIKey
		operatorKey := cfg.Auth.OperatorAPIKey

		admin := false
		switch token := bearerToken(c, "X-Admin-Token"); {
		case adminKey == "" && operatorKey == "":
			admin = true
		case adminKey != "" && tokenEqual(token, adminKey):
			admin = true
		case operatorKey != "" && tokenEqual(token, operatorKey):
		default:
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		name := c.Get("X-Operator")
		if name == "" {
			name = c.Query("operator")
		}
		if name == "" {
			name = defaultOperator
		}

		c.Locals(LocalOperator, name)
		c.Locals(LocalAdmin, admin)
		return c.Next()
	}
}

func AgentAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := cfg.Auth.AgentToken
		if token == "" {
			return c.Next()
		}

		if !tokenEqual(bearerToken(c, "X-Agent-Token"), token) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		return c.Next()
	}
}

// Operator returns the name stored by OperatorAuth.
func Operator(c *fiber.Ctx) string {
	if name, ok := c.Locals(LocalOperator).(string); ok && name != "" {
		return name
	}
	return defaultOperator
}

func IsAdmin(c *fiber.Ctx) bool {
	admin, _ := c.Locals(LocalAdmin).(bool)
	return admin
}
