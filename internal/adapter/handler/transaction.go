package handler

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/EmanuelCordobaLion/cuadernito-api/internal/adapter/middleware"
	"github.com/EmanuelCordobaLion/cuadernito-api/internal/core/domain"
	"github.com/EmanuelCordobaLion/cuadernito-api/internal/core/reconciler"
)

type TransactionHandler struct {
	Service *reconciler.Service
}

type itemPayload struct {
	ID         int64 `json:"id"`
	CategoryID int64 `json:"categoryId"`
	Amount     int64 `json:"amount"` // cents
}

type createTransactionRequest struct {
	Description            string        `json:"description"`
	Type                   string        `json:"type"`
	Date                   *time.Time    `json:"date"`
	Items                  []itemPayload `json:"items"`
	IsCredit               bool          `json:"isCredit"`
	ExistingDebtID         int64         `json:"existingDebtId"`
	DebtAmount             int64         `json:"debtAmount"`
	CustomerFirstName      string        `json:"customerFirstName"`
	CustomerLastName       string        `json:"customerLastName"`
	CustomerPhone          string        `json:"customerPhone"`
	CustomerDocumentNumber string        `json:"customerDocumentNumber"`
}

type updateTransactionRequest struct {
	Description            *string       `json:"description"`
	Type                   *string       `json:"type"`
	Date                   *time.Time    `json:"date"`
	Items                  []itemPayload `json:"items"`
	RemoveItemIDs          []int64       `json:"removeItemIds"`
	IsCredit               *bool         `json:"isCredit"`
	ExistingDebtID         int64         `json:"existingDebtId"`
	DebtAmount             int64         `json:"debtAmount"`
	CustomerFirstName      string        `json:"customerFirstName"`
	CustomerLastName       string        `json:"customerLastName"`
	CustomerPhone          string        `json:"customerPhone"`
	CustomerDocumentNumber string        `json:"customerDocumentNumber"`
}

type itemResponse struct {
	ID         int64 `json:"id"`
	CategoryID int64 `json:"categoryId"`
	Amount     int64 `json:"amount"`
}

type transactionResponse struct {
	ID                     int64          `json:"id"`
	Amount                 int64          `json:"amount"`
	Description            string         `json:"description,omitempty"`
	Type                   string         `json:"type"`
	Date                   time.Time      `json:"date"`
	Items                  []itemResponse `json:"items"`
	IsCredit               bool           `json:"isCredit"`
	CustomerDebtID         *int64         `json:"customerDebtId,omitempty"`
	DebtAmount             *int64         `json:"debtAmount,omitempty"`
	CustomerFirstName      string         `json:"customerFirstName,omitempty"`
	CustomerLastName       string         `json:"customerLastName,omitempty"`
	CustomerPhone          string         `json:"customerPhone,omitempty"`
	CustomerDocumentNumber string         `json:"customerDocumentNumber,omitempty"`
	CreatedAt              time.Time      `json:"createdAt"`
}

func toTransactionResponse(txn *domain.Transaction, debt *domain.CustomerDebt) transactionResponse {
	items := make([]itemResponse, 0, len(txn.Items))
	for _, it := range txn.Items {
		items = append(items, itemResponse{ID: it.ID, CategoryID: it.CategoryID, Amount: it.Amount})
	}
	resp := transactionResponse{
		ID:             txn.ID,
		Amount:         txn.Amount,
		Description:    txn.Description,
		Type:           string(txn.Type),
		Date:           txn.Date,
		Items:          items,
		IsCredit:       txn.IsCredit(),
		CustomerDebtID: txn.CustomerDebtID,
		DebtAmount:     txn.DebtAmount,
		CreatedAt:      txn.CreatedAt,
	}
	if debt != nil {
		resp.CustomerFirstName = debt.FirstName
		resp.CustomerLastName = debt.LastName
		resp.CustomerPhone = debt.Phone
		resp.CustomerDocumentNumber = debt.DocumentNumber
	}
	return resp
}

func itemInputs(items []itemPayload) []reconciler.ItemInput {
	if items == nil {
		return nil
	}
	out := make([]reconciler.ItemInput, 0, len(items))
	for _, it := range items {
		out = append(out, reconciler.ItemInput{ID: it.ID, CategoryID: it.CategoryID, Amount: it.Amount})
	}
	return out
}

func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	var req createTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	res, err := h.Service.Create(c.Context(), middleware.UserID(c), reconciler.CreateInput{
		Description:            req.Description,
		Type:                   req.Type,
		Date:                   req.Date,
		Items:                  itemInputs(req.Items),
		IsCredit:               req.IsCredit,
		ExistingDebtID:         req.ExistingDebtID,
		DebtAmount:             req.DebtAmount,
		CustomerFirstName:      req.CustomerFirstName,
		CustomerLastName:       req.CustomerLastName,
		CustomerPhone:          req.CustomerPhone,
		CustomerDocumentNumber: req.CustomerDocumentNumber,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(toTransactionResponse(res.Transaction, res.Debt))
}

func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.Service.Get(c.Context(), middleware.UserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toTransactionResponse(res.Transaction, res.Debt))
}

func (h *TransactionHandler) List(c *fiber.Ctx) error {
	txns, err := h.Service.List(c.Context(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]transactionResponse, 0, len(txns))
	for i := range txns {
		out = append(out, toTransactionResponse(&txns[i], nil))
	}
	return c.JSON(out)
}

func (h *TransactionHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req updateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	res, err := h.Service.Update(c.Context(), middleware.UserID(c), id, reconciler.UpdateInput{
		Description:            req.Description,
		Type:                   req.Type,
		Date:                   req.Date,
		Items:                  itemInputs(req.Items),
		RemoveItemIDs:          req.RemoveItemIDs,
		IsCredit:               req.IsCredit,
		ExistingDebtID:         req.ExistingDebtID,
		DebtAmount:             req.DebtAmount,
		CustomerFirstName:      req.CustomerFirstName,
		CustomerLastName:       req.CustomerLastName,
		CustomerPhone:          req.CustomerPhone,
		CustomerDocumentNumber: req.CustomerDocumentNumber,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toTransactionResponse(res.Transaction, res.Debt))
}

func (h *TransactionHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Service.Delete(c.Context(), middleware.UserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}
