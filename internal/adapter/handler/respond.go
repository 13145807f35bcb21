package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/EmanuelCordobaLion/cuadernito-api/internal/core/domain"
)

// respondError maps core errors onto the two user-facing kinds: 404 for
// not-found (including cross-owner access) and 400 for invalid requests.
// Anything else is a 500 with no detail leaked.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalid):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		slog.Error("internal error", "error", err, "path", c.Path(), "request_id", c.Locals("request_id"))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}

// pathID parses the :id route parameter.
func pathID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, domain.Invalidf("invalid id")
	}
	return int64(id), nil
}
