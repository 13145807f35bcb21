package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/EmanuelCordobaLion/cuadernito-api/internal/adapter/middleware"
	"github.com/EmanuelCordobaLion/cuadernito-api/internal/core/domain"
)

type CategoryStore interface {
	Create(ctx context.Context, category *domain.Category) error
	FindOwned(ctx context.Context, id, userID int64) (*domain.Category, error)
	List(ctx context.Context, userID int64) ([]domain.Category, error)
	Update(ctx context.Context, category *domain.Category) error
}

type CategoryHandler struct {
	Categories CategoryStore
}

type categoryRequest struct {
	Name string `json:"name"`
}

type categoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Category name is required"})
	}

	category := &domain.Category{Name: name, UserID: middleware.UserID(c)}
	if err := h.Categories.Create(c.Context(), category); err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(categoryResponse{ID: category.ID, Name: category.Name})
}

func (h *CategoryHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	category, err := h.Categories.FindOwned(c.Context(), id, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(categoryResponse{ID: category.ID, Name: category.Name})
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	categories, err := h.Categories.List(c.Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, cat := range categories {
		out = append(out, categoryResponse{ID: cat.ID, Name: cat.Name})
	}
	return c.JSON(out)
}

func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Category name cannot be empty"})
	}

	userID := middleware.UserID(c)
	category, err := h.Categories.FindOwned(c.Context(), id, userID)
	if err != nil {
		return respondError(c, err)
	}
	category.Name = name
	if err := h.Categories.Update(c.Context(), category); err != nil {
		return respondError(c, err)
	}
	return c.JSON(categoryResponse{ID: category.ID, Name: category.Name})
}
