package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/EmanuelCordobaLion/cuadernito-api/internal/adapter/middleware"
	"github.com/EmanuelCordobaLion/cuadernito-api/internal/core/domain"
	"github.com/EmanuelCordobaLion/cuadernito-api/internal/core/security"
)

type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	SaveAPIKey(ctx context.Context, userID int64, keyHash, keyPrefix string) error
}

type AuthHandler struct {
	Users UserStore
}

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

type userResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		Address:   u.Address,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	req.Email = strings.TrimSpace(req.Email)
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "First name and last name are required"})
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "A valid email is required"})
	}
	if len(req.Password) < 6 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Password must be at least 6 characters"})
	}

	exists, err := h.Users.ExistsByEmail(c.Context(), req.Email)
	if err != nil {
		return respondError(c, err)
	}
	if exists {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Email is already registered"})
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return respondError(c, err)
	}

	user := &domain.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(req.Phone),
		Address:      strings.TrimSpace(req.Address),
	}
	if err := h.Users.Create(c.Context(), user); err != nil {
		return respondError(c, err)
	}

	slog.Info("user registered", "user_id", user.ID, "email", user.Email)
	return c.Status(http.StatusCreated).JSON(toUserResponse(user))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	user, err := h.Users.FindByEmail(c.Context(), strings.TrimSpace(req.Email))
	if err != nil || !security.CheckPassword(req.Password, user.PasswordHash) {
		// same answer for unknown email and wrong password
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Incorrect email or password"})
	}

	realKey, keyHash, err := security.GenerateAPIKey()
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Users.SaveAPIKey(c.Context(), user.ID, keyHash, "cn_live_"); err != nil {
		return respondError(c, err)
	}

	slog.Info("api key issued", "user_id", user.ID)
	return c.JSON(fiber.Map{
		"apiKey": realKey,
		"type":   "Bearer",
		"user":   toUserResponse(user),
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if len(req.NewPassword) < 6 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Password must be at least 6 characters"})
	}

	user, err := h.Users.FindByID(c.Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	if !security.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Current password is incorrect"})
	}

	hash, err := security.HashPassword(req.NewPassword)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Users.UpdatePassword(c.Context(), user.ID, hash); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	exists, err := h.Users.ExistsByEmail(c.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		return respondError(c, err)
	}
	if !exists {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "No user with that email"})
	}

	// TODO: send the recovery email with a reset token
	return c.SendStatus(http.StatusNoContent)
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Password reset is not available yet"})
}
