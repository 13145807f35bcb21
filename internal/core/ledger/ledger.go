// Package ledger owns the customer debt balance math: every mutation
// re-derives remainingAmount and status so the invariant
// remaining = total - paid, 0 <= paid <= total holds at every save.
package ledger

import (
	"context"

	"github.com/EmanuelCordobaLion/cuadernito-api/internal/core/domain"
)

// Store is the debt persistence the ledger needs. Implementations must make
// read-then-write sequences atomic when run inside TxRunner.RunInTx (the pgx
// adapter locks the debt row; the in-memory test store is single-threaded).
type Store interface {
	FindOwned(ctx context.Context, id, userID int64) (*domain.CustomerDebt, error)
	FindByDocument(ctx context.Context, userID int64, documentNumber string) (*domain.CustomerDebt, error)
	List(ctx context.Context, userID int64) ([]domain.CustomerDebt, error)
	Save(ctx context.Context, debt *domain.CustomerDebt) error
	Delete(ctx context.Context, id, userID int64) error
}

// TxRunner executes fn as one atomic unit against the backing store.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Status derives the debt status from paid against total. A zero total counts
// as fully paid.
func Status(paid, total int64) domain.DebtStatus {
	switch {
	case total == 0:
		return domain.DebtPaid
	case paid == 0:
		return domain.DebtPending
	case paid >= total:
		return domain.DebtPaid
	default:
		return domain.DebtPartial
	}
}

// AddCredit extends what the customer owes by amount. Paid is untouched.
func AddCredit(debt *domain.CustomerDebt, amount int64) {
	debt.TotalAmount += amount
	debt.RemainingAmount = debt.TotalAmount - debt.PaidAmount
	debt.Status = Status(debt.PaidAmount, debt.TotalAmount)
}

// ReverseCredit subtracts a previously added credit. The total floors at zero
// and paid is clamped down to the new total: reducing a debt can use up prior
// payments, it never produces a negative balance.
func ReverseCredit(debt *domain.CustomerDebt, amount int64) {
	newTotal := debt.TotalAmount - amount
	if newTotal < 0 {
		newTotal = 0
	}
	debt.TotalAmount = newTotal
	if debt.PaidAmount > newTotal {
		debt.PaidAmount = newTotal
	}
	debt.RemainingAmount = newTotal - debt.PaidAmount
	debt.Status = Status(debt.PaidAmount, newTotal)
}

// applyPayment credits a payment against the debt, capped at the outstanding
// total. Excess is absorbed, not an error.
func applyPayment(debt *domain.CustomerDebt, amount int64) {
	newPaid := debt.PaidAmount + amount
	if newPaid > debt.TotalAmount {
		newPaid = debt.TotalAmount
	}
	debt.PaidAmount = newPaid
	debt.RemainingAmount = debt.TotalAmount - newPaid
	debt.Status = Status(newPaid, debt.TotalAmount)
}

// reclamp re-derives remaining and status after a direct total/paid edit,
// clamping paid the same way ReverseCredit does.
func reclamp(debt *domain.CustomerDebt) {
	if debt.PaidAmount > debt.TotalAmount {
		debt.PaidAmount = debt.TotalAmount
	}
	debt.RemainingAmount = debt.TotalAmount - debt.PaidAmount
	debt.Status = Status(debt.PaidAmount, debt.TotalAmount)
}

// Service exposes the user-facing debt operations. Store handles are injected
// so tests run against an in-memory implementation.
type Service struct {
	Runner TxRunner
	Debts  Store
}

func NewService(runner TxRunner, debts Store) *Service {
	return &Service{Runner: runner, Debts: debts}
}

// CreateInput is a manual debt entry. PaidAmount may pre-fill prior payments.
type CreateInput struct {
	DocumentNumber string
	FirstName      string
	LastName       string
	Phone          string
	TotalAmount    int64
	PaidAmount     int64
}

// UpdateInput carries a partial edit; nil fields stay unchanged.
type UpdateInput struct {
	DocumentNumber *string
	FirstName      *string
	LastName       *string
	Phone          *string
	TotalAmount    *int64
	PaidAmount     *int64
}

func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (*domain.CustomerDebt, error) {
	firstName, err := domain.ValidateCustomerName("first name", in.FirstName)
	if err != nil {
		return nil, err
	}
	lastName, err := domain.ValidateCustomerName("last name", in.LastName)
	if err != nil {
		return nil, err
	}
	phone, err := domain.ValidateCustomerPhone(in.Phone)
	if err != nil {
		return nil, err
	}
	doc, err := domain.ValidateDocumentNumber(in.DocumentNumber)
	if err != nil {
		return nil, err
	}
	if in.TotalAmount <= 0 {
		return nil, domain.Invalidf("total amount must be greater than zero")
	}
	if in.PaidAmount < 0 {
		return nil, domain.Invalidf("paid amount cannot be negative")
	}
	if in.PaidAmount > in.TotalAmount {
		return nil, domain.Invalidf("paid amount cannot exceed total amount")
	}

	debt := &domain.CustomerDebt{
		DocumentNumber:  doc,
		FirstName:       firstName,
		LastName:        lastName,
		Phone:           phone,
		TotalAmount:     in.TotalAmount,
		PaidAmount:      in.PaidAmount,
		RemainingAmount: in.TotalAmount - in.PaidAmount,
		Status:          Status(in.PaidAmount, in.TotalAmount),
		UserID:          userID,
	}

	err = s.Runner.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := s.Debts.FindByDocument(ctx, userID, doc)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.Invalidf("a debt with document number %s already exists", doc)
		}
		return s.Debts.Save(ctx, debt)
	})
	if err != nil {
		return nil, err
	}
	return debt, nil
}

func (s *Service) Get(ctx context.Context, userID, id int64) (*domain.CustomerDebt, error) {
	return s.Debts.FindOwned(ctx, id, userID)
}

func (s *Service) List(ctx context.Context, userID int64) ([]domain.CustomerDebt, error) {
	return s.Debts.List(ctx, userID)
}

func (s *Service) Update(ctx context.Context, userID, id int64, in UpdateInput) (*domain.CustomerDebt, error) {
	var debt *domain.CustomerDebt
	err := s.Runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		debt, err = s.Debts.FindOwned(ctx, id, userID)
		if err != nil {
			return err
		}

		if in.FirstName != nil {
			firstName, err := domain.ValidateCustomerName("first name", *in.FirstName)
			if err != nil {
				return err
			}
			debt.FirstName = firstName
		}
		if in.LastName != nil {
			lastName, err := domain.ValidateCustomerName("last name", *in.LastName)
			if err != nil {
				return err
			}
			debt.LastName = lastName
		}
		if in.Phone != nil {
			phone, err := domain.ValidateCustomerPhone(*in.Phone)
			if err != nil {
				return err
			}
			debt.Phone = phone
		}
		if in.DocumentNumber != nil {
			doc, err := domain.ValidateDocumentNumber(*in.DocumentNumber)
			if err != nil {
				return err
			}
			existing, err := s.Debts.FindByDocument(ctx, userID, doc)
			if err != nil {
				return err
			}
			if existing != nil && existing.ID != debt.ID {
				return domain.Invalidf("a debt with document number %s already exists", doc)
			}
			debt.DocumentNumber = doc
		}
		if in.TotalAmount != nil {
			if *in.TotalAmount <= 0 {
				return domain.Invalidf("total amount must be greater than zero")
			}
			debt.TotalAmount = *in.TotalAmount
			reclamp(debt)
		}
		if in.PaidAmount != nil {
			if *in.PaidAmount < 0 {
				return domain.Invalidf("paid amount cannot be negative")
			}
			if *in.PaidAmount > debt.TotalAmount {
				return domain.Invalidf("paid amount cannot exceed total amount")
			}
			debt.PaidAmount = *in.PaidAmount
			reclamp(debt)
		}

		return s.Debts.Save(ctx, debt)
	})
	if err != nil {
		return nil, err
	}
	return debt, nil
}

// RegisterPayment records a customer payment against the debt.
func (s *Service) RegisterPayment(ctx context.Context, userID, id, amount int64) (*domain.CustomerDebt, error) {
	if amount <= 0 {
		return nil, domain.Invalidf("payment amount must be greater than zero")
	}
	var debt *domain.CustomerDebt
	err := s.Runner.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		debt, err = s.Debts.FindOwned(ctx, id, userID)
		if err != nil {
			return err
		}
		applyPayment(debt, amount)
		return s.Debts.Save(ctx, debt)
	})
	if err != nil {
		return nil, err
	}
	return debt, nil
}

func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	return s.Runner.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.Debts.FindOwned(ctx, id, userID); err != nil {
			return err
		}
		return s.Debts.Delete(ctx, id, userID)
	})
}
