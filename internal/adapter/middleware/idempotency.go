package middleware

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// IdempotencyStore caches responses by client-supplied key.
type IdempotencyStore interface {
	GetCached(ctx context.Context, key string) (status int, body []byte, ok bool, err error)
	SaveCached(ctx context.Context, key string, status int, body []byte) error
}

// Idempotency replays the cached response when a request repeats an
// Idempotency-Key. Requests without the header pass through.
func Idempotency(store IdempotencyStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// c.Get returns a string aliasing fasthttp's reusable request
		// buffer; copy it so the value outlives this request when the
		// store retains it as a cache key.
		key := utils.CopyString(c.Get("Idempotency-Key"))
		if key == "" {
			return c.Next()
		}

		status, body, ok, err := store.GetCached(c.Context(), key)
		if err == nil && ok {
			slog.Info("idempotency hit, returning cached response", "key", key)
			c.Set("X-Idempotency-Hit", "true")
			c.Set("Content-Type", "application/json")
			return c.Status(status).Send(body)
		}

		if err := c.Next(); err != nil {
			return err
		}

		resStatus := c.Response().StatusCode()
		resBody := utils.CopyBytes(c.Response().Body())
		if err := store.SaveCached(c.Context(), key, resStatus, resBody); err != nil {
			slog.Error("failed to save idempotency key", "error", err, "key", key)
		}
		return nil
	}
}
