package domain

import "time"

type DebtStatus string

const (
	DebtPending DebtStatus = "PENDING"
	DebtPartial DebtStatus = "PARTIAL"
	DebtPaid    DebtStatus = "PAID"
)

type TransactionType string

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

// User owns every other entity. The core only ever sees its ID.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Phone        string
	Address      string
	CreatedAt    time.Time
}

type Category struct {
	ID        int64
	Name      string
	UserID    int64
	CreatedAt time.Time
}

// CustomerDebt is the running balance one customer owes one user.
// Invariant: RemainingAmount = TotalAmount - PaidAmount and 0 <= PaidAmount <= TotalAmount.
// All amounts are in minor units (cents).
type CustomerDebt struct {
	ID              int64
	DocumentNumber  string
	FirstName       string
	LastName        string
	Phone           string
	TotalAmount     int64
	PaidAmount      int64
	RemainingAmount int64
	Status          DebtStatus
	UserID          int64
	CreatedAt       time.Time
}

type TransactionItem struct {
	ID         int64
	CategoryID int64
	Amount     int64 // cents, always > 0
	CreatedAt  time.Time
}

// Transaction is a single income/expense entry. Amount is the sum of its
// items. CustomerDebtID and DebtAmount are set together or not at all: a
// transaction is a credit sale ("fiado") exactly when it is linked to a debt.
type Transaction struct {
	ID             int64
	Amount         int64
	Description    string
	Type           TransactionType
	Date           time.Time
	Items          []TransactionItem
	UserID         int64
	CustomerDebtID *int64
	DebtAmount     *int64
	CreatedAt      time.Time
}

// IsCredit reports whether the transaction is linked to a customer debt.
func (t *Transaction) IsCredit() bool {
	return t.CustomerDebtID != nil && t.DebtAmount != nil
}
