package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	DB  Pinger
	Env string
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "UP"
	if h.DB != nil {
		if err := h.DB.Ping(c.Context()); err != nil {
			status = "DOWN"
		}
	}
	return c.JSON(fiber.Map{
		"status":    status,
		"env":       h.Env,
		"timestamp": time.Now().UTC(),
	})
}

func (h *HealthHandler) Ping(c *fiber.Ctx) error {
	return c.SendString("pong")
}
