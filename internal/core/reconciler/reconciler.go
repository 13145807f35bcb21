// Package reconciler keeps transactions, their item sets and the customer
// debt ledger consistent: it is the only component that mutates a debt on
// behalf of a transaction.
package reconciler

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/EmanuelCordobaLion/cuadernito-api/internal/core/domain"
	"github.com/EmanuelCordobaLion/cuadernito-api/internal/core/ledger"
)

type CategoryStore interface {
	FindOwned(ctx context.Context, id, userID int64) (*domain.Category, error)
}

// DebtStore is the slice of the debt store the reconciler needs.
// FindByDocument returns (nil, nil) when no debt carries the document.
type DebtStore interface {
	FindOwned(ctx context.Context, id, userID int64) (*domain.CustomerDebt, error)
	FindByDocument(ctx context.Context, userID int64, documentNumber string) (*domain.CustomerDebt, error)
	Save(ctx context.Context, debt *domain.CustomerDebt) error
}

type TransactionStore interface {
	FindOwned(ctx context.Context, id, userID int64) (*domain.Transaction, error)
	List(ctx context.Context, userID int64) ([]domain.Transaction, error)
	Save(ctx context.Context, txn *domain.Transaction) error
	Delete(ctx context.Context, id, userID int64) error
}

type ItemStore interface {
	SaveItem(ctx context.Context, transactionID int64, item *domain.TransactionItem) error
	DeleteItem(ctx context.Context, itemID int64) error
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service orchestrates transaction create/update/delete against the ledger.
// All store handles are injected; there is no ambient state.
type Service struct {
	Runner       TxRunner
	Transactions TransactionStore
	Items        ItemStore
	Debts        DebtStore
	Categories   CategoryStore
}

func NewService(runner TxRunner, txns TransactionStore, items ItemStore, debts DebtStore, cats CategoryStore) *Service {
	return &Service{Runner: runner, Transactions: txns, Items: items, Debts: debts, Categories: cats}
}

// ItemInput adds a new item when ID is zero, otherwise replaces the item with
// that ID.
type ItemInput struct {
	ID         int64
	CategoryID int64
	Amount     int64
}

// CreateInput mirrors the create-transaction payload. DebtAmount <= 0 means
// "default to the full transaction amount"; ExistingDebtID <= 0 means "no
// existing debt, resolve by customer document".
type CreateInput struct {
	Description            string
	Type                   string
	Date                   *time.Time
	Items                  []ItemInput
	IsCredit               bool
	ExistingDebtID         int64
	DebtAmount             int64
	CustomerFirstName      string
	CustomerLastName       string
	CustomerPhone          string
	CustomerDocumentNumber string
}

// UpdateInput is fully partial. IsCredit is tri-state: nil leaves the credit
// link untouched, true/false re-resolves or clears it.
type UpdateInput struct {
	Description            *string
	Type                   *string
	Date                   *time.Time
	Items                  []ItemInput
	RemoveItemIDs          []int64
	IsCredit               *bool
	ExistingDebtID         int64
	DebtAmount             int64
	CustomerFirstName      string
	CustomerLastName       string
	CustomerPhone          string
	CustomerDocumentNumber string
}

// Result pairs a transaction with its linked debt (nil when not a credit sale)
// so handlers can render the counterparty's display fields.
type Result struct {
	Transaction *domain.Transaction
	Debt        *domain.CustomerDebt
}

func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (*Result, error) {
	if len(in.Items) == 0 {
		return nil, domain.Invalidf("transaction must have at least one item")
	}

	var total int64
	items := make([]domain.TransactionItem, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Amount <= 0 {
			return nil, domain.Invalidf("every item must have an amount greater than zero")
		}
		if _, err := s.Categories.FindOwned(ctx, it.CategoryID, userID); err != nil {
			return nil, err
		}
		items = append(items, domain.TransactionItem{CategoryID: it.CategoryID, Amount: it.Amount})
		total += it.Amount
	}

	txnType := domain.Income
	if in.Type != "" {
		var err error
		txnType, err = domain.ParseTransactionType(in.Type)
		if err != nil {
			return nil, err
		}
	}

	date := time.Now()
	if in.Date != nil {
		date = *in.Date
	}

	var debtAmount int64
	if in.IsCredit {
		debtAmount = in.DebtAmount
		if debtAmount <= 0 {
			debtAmount = total
		}
		if debtAmount > total {
			return nil, domain.Invalidf("debt amount cannot exceed the transaction amount")
		}
	}

	txn := &domain.Transaction{
		Amount:      total,
		Description: in.Description,
		Type:        txnType,
		Date:        date,
		UserID:      userID,
	}

	var debt *domain.CustomerDebt
	err := s.Runner.RunInTx(ctx, func(ctx context.Context) error {
		if in.IsCredit {
			var err error
			debt, err = s.attachDebt(ctx, userID, creditTarget{
				ExistingDebtID:        in.ExistingDebtID,
				FirstName:             in.CustomerFirstName,
				LastName:              in.CustomerLastName,
				Phone:                 in.CustomerPhone,
				DocumentNumber:        in.CustomerDocumentNumber,
				requireCustomerFields: true,
			}, debtAmount)
			if err != nil {
				return err
			}
			txn.CustomerDebtID = &debt.ID
			txn.DebtAmount = &debtAmount
		}

		if err := s.Transactions.Save(ctx, txn); err != nil {
			return err
		}
		for i := range items {
			if err := s.Items.SaveItem(ctx, txn.ID, &items[i]); err != nil {
				return err
			}
		}
		txn.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("transaction created", "transaction_id", txn.ID, "user_id", userID, "amount", txn.Amount, "credit", txn.IsCredit())
	return &Result{Transaction: txn, Debt: debt}, nil
}

func (s *Service) Get(ctx context.Context, userID, id int64) (*Result, error) {
	txn, err := s.Transactions.FindOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return s.withDebt(ctx, userID, txn)
}

func (s *Service) List(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	return s.Transactions.List(ctx, userID)
}

func (s *Service) Update(ctx context.Context, userID, id int64, in UpdateInput) (*Result, error) {
	var (
		txn  *domain.Transaction
		debt *domain.CustomerDebt
	)
	err := s.Runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		txn, err = s.Transactions.FindOwned(ctx, id, userID)
		if err != nil {
			return err
		}

		oldDebtID := txn.CustomerDebtID
		oldDebtAmount := txn.DebtAmount

		if in.Description != nil {
			txn.Description = *in.Description
		}
		if in.Type != nil {
			txnType, err := domain.ParseTransactionType(*in.Type)
			if err != nil {
				return err
			}
			txn.Type = txnType
		}
		if in.Date != nil {
			txn.Date = *in.Date
		}

		itemsChanged := in.Items != nil || len(in.RemoveItemIDs) > 0
		var removedIDs []int64
		if itemsChanged {
			removedIDs, err = s.applyItemEdits(ctx, txn, in.Items, in.RemoveItemIDs, userID)
			if err != nil {
				return err
			}
			var total int64
			for _, it := range txn.Items {
				total += it.Amount
			}
			txn.Amount = total
		}

		switch {
		case in.IsCredit != nil:
			// The flag is explicit: unconditionally undo the previous link,
			// then re-attach if requested, against the post-edit amount.
			if oldDebtID != nil && oldDebtAmount != nil {
				oldDebt, err := s.Debts.FindOwned(ctx, *oldDebtID, userID)
				if err != nil {
					return err
				}
				ledger.ReverseCredit(oldDebt, *oldDebtAmount)
				if err := s.Debts.Save(ctx, oldDebt); err != nil {
					return err
				}
			}
			txn.CustomerDebtID = nil
			txn.DebtAmount = nil

			if *in.IsCredit {
				newDebtAmount := in.DebtAmount
				if newDebtAmount <= 0 {
					newDebtAmount = txn.Amount
				}
				if newDebtAmount > txn.Amount {
					return domain.Invalidf("debt amount cannot exceed the transaction amount")
				}
				debt, err = s.attachDebt(ctx, userID, creditTarget{
					ExistingDebtID: in.ExistingDebtID,
					FirstName:      in.CustomerFirstName,
					LastName:       in.CustomerLastName,
					Phone:          in.CustomerPhone,
					DocumentNumber: in.CustomerDocumentNumber,
				}, newDebtAmount)
				if err != nil {
					return err
				}
				txn.CustomerDebtID = &debt.ID
				txn.DebtAmount = &newDebtAmount
			}

		case itemsChanged && oldDebtID != nil && oldDebtAmount != nil:
			// Still linked to the same debt: its contribution may never
			// exceed the new amount.
			newDebtAmount := *oldDebtAmount
			if newDebtAmount > txn.Amount {
				newDebtAmount = txn.Amount
			}
			if newDebtAmount != *oldDebtAmount {
				debt, err = s.Debts.FindOwned(ctx, *oldDebtID, userID)
				if err != nil {
					return err
				}
				ledger.ReverseCredit(debt, *oldDebtAmount)
				ledger.AddCredit(debt, newDebtAmount)
				if err := s.Debts.Save(ctx, debt); err != nil {
					return err
				}
				txn.DebtAmount = &newDebtAmount
			}
		}

		if itemsChanged {
			for _, itemID := range removedIDs {
				if err := s.Items.DeleteItem(ctx, itemID); err != nil {
					return err
				}
			}
			for i := range txn.Items {
				if err := s.Items.SaveItem(ctx, txn.ID, &txn.Items[i]); err != nil {
					return err
				}
			}
		}
		return s.Transactions.Save(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	if debt == nil {
		return s.withDebt(ctx, userID, txn)
	}
	return &Result{Transaction: txn, Debt: debt}, nil
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	err := s.Runner.RunInTx(ctx, func(ctx context.Context) error {
		txn, err := s.Transactions.FindOwned(ctx, id, userID)
		if err != nil {
			return err
		}
		if txn.CustomerDebtID != nil && txn.DebtAmount != nil {
			debt, err := s.Debts.FindOwned(ctx, *txn.CustomerDebtID, userID)
			if err != nil {
				return err
			}
			ledger.ReverseCredit(debt, *txn.DebtAmount)
			if err := s.Debts.Save(ctx, debt); err != nil {
				return err
			}
		}
		return s.Transactions.Delete(ctx, id, userID)
	})
	if err != nil {
		return err
	}
	slog.Info("transaction deleted", "transaction_id", id, "user_id", userID)
	return nil
}

// creditTarget describes how to resolve the counterparty debt for a credit
// sale: an existing debt id, or customer fields keyed by document number.
type creditTarget struct {
	ExistingDebtID int64
	FirstName      string
	LastName       string
	Phone          string
	DocumentNumber string

	// On create the customer fields are required whenever no existing debt id
	// is given; on update a missing document number is its own error.
	requireCustomerFields bool
}

// attachDebt resolves the counterparty debt (existing id, document lookup, or
// a fresh record) and credits debtAmount to it. Must run inside a store
// transaction.
func (s *Service) attachDebt(ctx context.Context, userID int64, target creditTarget, debtAmount int64) (*domain.CustomerDebt, error) {
	if target.ExistingDebtID > 0 {
		debt, err := s.Debts.FindOwned(ctx, target.ExistingDebtID, userID)
		if err != nil {
			return nil, err
		}
		ledger.AddCredit(debt, debtAmount)
		if err := s.Debts.Save(ctx, debt); err != nil {
			return nil, err
		}
		return debt, nil
	}

	if !target.requireCustomerFields && strings.TrimSpace(target.DocumentNumber) == "" {
		return nil, domain.Invalidf("marking as credit requires an existing debt id or the customer's first name, last name, phone and document number")
	}

	firstName, err := domain.ValidateCustomerName("first name", target.FirstName)
	if err != nil {
		return nil, err
	}
	lastName, err := domain.ValidateCustomerName("last name", target.LastName)
	if err != nil {
		return nil, err
	}
	phone, err := domain.ValidateCustomerPhone(target.Phone)
	if err != nil {
		return nil, err
	}
	doc, err := domain.ValidateDocumentNumber(target.DocumentNumber)
	if err != nil {
		return nil, err
	}

	existing, err := s.Debts.FindByDocument(ctx, userID, doc)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		ledger.AddCredit(existing, debtAmount)
		if err := s.Debts.Save(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	debt := &domain.CustomerDebt{
		DocumentNumber: doc,
		FirstName:      firstName,
		LastName:       lastName,
		Phone:          phone,
		UserID:         userID,
	}
	ledger.AddCredit(debt, debtAmount)
	if err := s.Debts.Save(ctx, debt); err != nil {
		return nil, err
	}
	slog.Info("customer debt created for credit sale", "debt_id", debt.ID, "user_id", userID, "document", doc)
	return debt, nil
}

// applyItemEdits mutates the transaction's in-memory item set: removals first,
// then replacements and additions. Returns the removed item ids so the caller
// can delete them after all validation passed.
func (s *Service) applyItemEdits(ctx context.Context, txn *domain.Transaction, edits []ItemInput, removeIDs []int64, userID int64) ([]int64, error) {
	var removed []int64
	for _, itemID := range removeIDs {
		idx := indexOfItem(txn.Items, itemID)
		if idx < 0 {
			return nil, domain.NotFoundf("item %d", itemID)
		}
		txn.Items = append(txn.Items[:idx], txn.Items[idx+1:]...)
		removed = append(removed, itemID)
	}

	for _, edit := range edits {
		if edit.Amount <= 0 {
			return nil, domain.Invalidf("every item must have an amount greater than zero")
		}
		if _, err := s.Categories.FindOwned(ctx, edit.CategoryID, userID); err != nil {
			return nil, err
		}
		if edit.ID > 0 {
			idx := indexOfItem(txn.Items, edit.ID)
			if idx < 0 {
				return nil, domain.NotFoundf("item %d", edit.ID)
			}
			txn.Items[idx].CategoryID = edit.CategoryID
			txn.Items[idx].Amount = edit.Amount
		} else {
			txn.Items = append(txn.Items, domain.TransactionItem{CategoryID: edit.CategoryID, Amount: edit.Amount})
		}
	}

	if len(txn.Items) == 0 {
		return nil, domain.Invalidf("transaction must keep at least one item; delete the transaction to remove them all")
	}
	return removed, nil
}

func (s *Service) withDebt(ctx context.Context, userID int64, txn *domain.Transaction) (*Result, error) {
	res := &Result{Transaction: txn}
	if txn.CustomerDebtID != nil {
		debt, err := s.Debts.FindOwned(ctx, *txn.CustomerDebtID, userID)
		if err != nil {
			return nil, err
		}
		res.Debt = debt
	}
	return res, nil
}

func indexOfItem(items []domain.TransactionItem, id int64) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
