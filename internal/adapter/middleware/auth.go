package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/EmanuelCordobaLion/cuadernito-api/internal/core/security"
)

// UserIDKey is where Protected stores the authenticated user id in c.Locals.
const UserIDKey = "user_id"

// KeyResolver maps a hashed API key to the owning user id.
type KeyResolver interface {
	ResolveAPIKey(ctx context.Context, keyHash string) (int64, error)
}

// Protected authenticates requests by API key in the Authorization header.
func Protected(keys KeyResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization") // "Bearer cn_live_..."
		if authHeader == "" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Missing API key"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid header format"})
		}

		// We never compare plain text, only hashes
		userID, err := keys.ResolveAPIKey(c.Context(), security.HashKey(parts[1]))
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid API key"})
		}

		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

// UserID returns the authenticated user id stored by Protected.
func UserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(UserIDKey).(int64)
	return id
}
