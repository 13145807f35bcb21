package handler

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/EmanuelCordobaLion/cuadernito-api/internal/adapter/middleware"
	"github.com/EmanuelCordobaLion/cuadernito-api/internal/core/domain"
	"github.com/EmanuelCordobaLion/cuadernito-api/internal/core/ledger"
)

type DebtHandler struct {
	Service *ledger.Service
}

type createDebtRequest struct {
	DocumentNumber    string `json:"documentNumber"`
	CustomerFirstName string `json:"customerFirstName"`
	CustomerLastName  string `json:"customerLastName"`
	CustomerPhone     string `json:"customerPhone"`
	TotalAmount       int64  `json:"totalAmount"` // cents
	PaidAmount        int64  `json:"paidAmount"`
}

type updateDebtRequest struct {
	DocumentNumber    *string `json:"documentNumber"`
	CustomerFirstName *string `json:"customerFirstName"`
	CustomerLastName  *string `json:"customerLastName"`
	CustomerPhone     *string `json:"customerPhone"`
	TotalAmount       *int64  `json:"totalAmount"`
	PaidAmount        *int64  `json:"paidAmount"`
}

type debtResponse struct {
	ID                int64     `json:"id"`
	DocumentNumber    string    `json:"documentNumber"`
	CustomerFirstName string    `json:"customerFirstName"`
	CustomerLastName  string    `json:"customerLastName"`
	CustomerPhone     string    `json:"customerPhone"`
	TotalAmount       int64     `json:"totalAmount"`
	PaidAmount        int64     `json:"paidAmount"`
	RemainingAmount   int64     `json:"remainingAmount"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
}

func toDebtResponse(d *domain.CustomerDebt) debtResponse {
	return debtResponse{
		ID:                d.ID,
		DocumentNumber:    d.DocumentNumber,
		CustomerFirstName: d.FirstName,
		CustomerLastName:  d.LastName,
		CustomerPhone:     d.Phone,
		TotalAmount:       d.TotalAmount,
		PaidAmount:        d.PaidAmount,
		RemainingAmount:   d.RemainingAmount,
		Status:            string(d.Status),
		CreatedAt:         d.CreatedAt,
	}
}

func (h *DebtHandler) Create(c *fiber.Ctx) error {
	var req createDebtRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	debt, err := h.Service.Create(c.Context(), middleware.UserID(c), ledger.CreateInput{
		DocumentNumber: req.DocumentNumber,
		FirstName:      req.CustomerFirstName,
		LastName:       req.CustomerLastName,
		Phone:          req.CustomerPhone,
		TotalAmount:    req.TotalAmount,
		PaidAmount:     req.PaidAmount,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(toDebtResponse(debt))
}

func (h *DebtHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	debt, err := h.Service.Get(c.Context(), middleware.UserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toDebtResponse(debt))
}

func (h *DebtHandler) List(c *fiber.Ctx) error {
	debts, err := h.Service.List(c.Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]debtResponse, 0, len(debts))
	for i := range debts {
		out = append(out, toDebtResponse(&debts[i]))
	}
	return c.JSON(out)
}

func (h *DebtHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req updateDebtRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	debt, err := h.Service.Update(c.Context(), middleware.UserID(c), id, ledger.UpdateInput{
		DocumentNumber: req.DocumentNumber,
		FirstName:      req.CustomerFirstName,
		LastName:       req.CustomerLastName,
		Phone:          req.CustomerPhone,
		TotalAmount:    req.TotalAmount,
		PaidAmount:     req.PaidAmount,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toDebtResponse(debt))
}

type paymentRequest struct {
	Amount int64 `json:"amount"` // cents
}

func (h *DebtHandler) RegisterPayment(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req paymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	debt, err := h.Service.RegisterPayment(c.Context(), middleware.UserID(c), id, req.Amount)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toDebtResponse(debt))
}

func (h *DebtHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Service.Delete(c.Context(), middleware.UserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}
