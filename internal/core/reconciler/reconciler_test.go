package reconciler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/EmanuelCordobaLion/cuadernito-api/internal/adapter/storage/memory"
	"github.com/EmanuelCordobaLion/cuadernito-api/internal/core/domain"
	"github.com/EmanuelCordobaLion/cuadernito-api/internal/core/ledger"
)

const ownerID int64 = 1

type harness struct {
	svc   *Service
	debts *ledger.Service
	store *memory.Store
	catA  int64
	catB  int64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	catA := &domain.Category{Name: "Groceries", UserID: ownerID}
	catB := &domain.Category{Name: "Drinks", UserID: ownerID}
	for _, c := range []*domain.Category{catA, catB} {
		if err := store.Categories().Create(ctx, c); err != nil {
			t.Fatalf("seed category: %v", err)
		}
	}

	return &harness{
		svc:   NewService(store, store.Transactions(), store.Transactions(), store.Debts(), store.Categories()),
		debts: ledger.NewService(store, store.Debts()),
		store: store,
		catA:  catA.ID,
		catB:  catB.ID,
	}
}

func (h *harness) creditCreate(amountA, amountB int64) CreateInput {
	return CreateInput{
		Description: "fiado sale",
		Items: []ItemInput{
			{CategoryID: h.catA, Amount: amountA},
			{CategoryID: h.catB, Amount: amountB},
		},
		IsCredit:               true,
		CustomerFirstName:      "Ana",
		CustomerLastName:       "Lopez",
		CustomerPhone:          "555-0100",
		CustomerDocumentNumber: "12345",
	}
}

func (h *harness) mustCreate(t *testing.T, in CreateInput) *Result {
	t.Helper()
	res, err := h.svc.Create(context.Background(), ownerID, in)
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return res
}

func (h *harness) debtState(t *testing.T, id int64) *domain.CustomerDebt {
	t.Helper()
	debt, err := h.store.Debts().FindOwned(context.Background(), id, ownerID)
	if err != nil {
		t.Fatalf("load debt: %v", err)
	}
	return debt
}

func TestCreateNonCredit(t *testing.T) {
	h := newHarness(t)
	res := h.mustCreate(t, CreateInput{
		Description: "cash sale",
		Type:        "expense",
		Items:       []ItemInput{{CategoryID: h.catA, Amount: 1500}},
	})
	txn := res.Transaction
	if txn.Amount != 1500 || txn.Type != domain.Expense {
		t.Fatalf("got amount=%d type=%s", txn.Amount, txn.Type)
	}
	if txn.IsCredit() || res.Debt != nil {
		t.Fatal("non-credit transaction must not carry a debt link")
	}
	if len(txn.Items) != 1 || txn.Items[0].ID == 0 {
		t.Fatalf("items not persisted: %+v", txn.Items)
	}
}

func TestCreateDefaultsTypeAndDate(t *testing.T) {
	h := newHarness(t)
	before := time.Now()
	res := h.mustCreate(t, CreateInput{Items: []ItemInput{{CategoryID: h.catA, Amount: 100}}})
	if res.Transaction.Type != domain.Income {
		t.Fatalf("type = %s, want INCOME default", res.Transaction.Type)
	}
	if res.Transaction.Date.Before(before) {
		t.Fatalf("date %v not defaulted to now", res.Transaction.Date)
	}
}

func TestCreateCreditNewCustomer(t *testing.T) {
	h := newHarness(t)
	res := h.mustCreate(t, h.creditCreate(3000, 2000))

	txn := res.Transaction
	if txn.Amount != 5000 || !txn.IsCredit() {
		t.Fatalf("got amount=%d credit=%v", txn.Amount, txn.IsCredit())
	}
	if *txn.DebtAmount != 5000 {
		t.Fatalf("debt amount = %d, want full transaction amount", *txn.DebtAmount)
	}

	debt := res.Debt
	if debt == nil {
		t.Fatal("credit sale must return the linked debt")
	}
	if debt.TotalAmount != 5000 || debt.PaidAmount != 0 || debt.Status != domain.DebtPending {
		t.Fatalf("got debt total=%d paid=%d status=%s", debt.TotalAmount, debt.PaidAmount, debt.Status)
	}
	if debt.FirstName != "Ana" || debt.DocumentNumber != "12345" {
		t.Fatalf("got customer %s / %s", debt.FirstName, debt.DocumentNumber)
	}
	if *txn.CustomerDebtID != debt.ID {
		t.Fatal("transaction not linked to created debt")
	}
}

func TestCreateCreditPartialDebtAmount(t *testing.T) {
	h := newHarness(t)
	in := h.creditCreate(3000, 2000)
	in.DebtAmount = 2000 // customer paid 3000 up front
	res := h.mustCreate(t, in)
	if *res.Transaction.DebtAmount != 2000 || res.Debt.TotalAmount != 2000 {
		t.Fatalf("got txn debtAmount=%d debt total=%d", *res.Transaction.DebtAmount, res.Debt.TotalAmount)
	}
}

func TestCreateCreditReusesCustomerByDocument(t *testing.T) {
	h := newHarness(t)
	first := h.mustCreate(t, h.creditCreate(3000, 2000))
	second := h.mustCreate(t, h.creditCreate(1000, 500))

	if first.Debt.ID != second.Debt.ID {
		t.Fatalf("same document produced distinct debts %d and %d", first.Debt.ID, second.Debt.ID)
	}
	if second.Debt.TotalAmount != 6500 {
		t.Fatalf("debt total = %d, want accumulated 6500", second.Debt.TotalAmount)
	}
}

func TestCreateCreditExistingDebt(t *testing.T) {
	h := newHarness(t)
	debt, err := h.debts.Create(context.Background(), ownerID, ledger.CreateInput{
		DocumentNumber: "555", FirstName: "Luis", LastName: "Diaz", Phone: "555-0200",
		TotalAmount: 10000, PaidAmount: 4000,
	})
	if err != nil {
		t.Fatalf("seed debt: %v", err)
	}

	res := h.mustCreate(t, CreateInput{
		Items:          []ItemInput{{CategoryID: h.catA, Amount: 6000}},
		IsCredit:       true,
		ExistingDebtID: debt.ID,
	})
	got := res.Debt
	if got.ID != debt.ID {
		t.Fatalf("attached to debt %d, want %d", got.ID, debt.ID)
	}
	if got.TotalAmount != 16000 || got.PaidAmount != 4000 || got.Status != domain.DebtPartial {
		t.Fatalf("got total=%d paid=%d status=%s", got.TotalAmount, got.PaidAmount, got.Status)
	}
}

func TestCreateValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"no items", CreateInput{}, domain.ErrInvalid},
		{"zero item amount", CreateInput{Items: []ItemInput{{CategoryID: h.catA, Amount: 0}}}, domain.ErrInvalid},
		{"unknown type", CreateInput{Type: "transfer", Items: []ItemInput{{CategoryID: h.catA, Amount: 100}}}, domain.ErrInvalid},
		{"foreign category", CreateInput{Items: []ItemInput{{CategoryID: 9999, Amount: 100}}}, domain.ErrNotFound},
		{"credit without customer", CreateInput{Items: []ItemInput{{CategoryID: h.catA, Amount: 100}}, IsCredit: true}, domain.ErrInvalid},
		{"credit with unknown debt", CreateInput{Items: []ItemInput{{CategoryID: h.catA, Amount: 100}}, IsCredit: true, ExistingDebtID: 9999}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := h.svc.Create(ctx, ownerID, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}

	in := h.creditCreate(3000, 2000)
	in.DebtAmount = 6000
	if _, err := h.svc.Create(ctx, ownerID, in); !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("debt amount above total: got %v, want ErrInvalid", err)
	}
}

func TestUpdateScalarFields(t *testing.T) {
	h := newHarness(t)
	res := h.mustCreate(t, CreateInput{Items: []ItemInput{{CategoryID: h.catA, Amount: 100}}})

	desc := "corrected"
	typ := "expense"
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	updated, err := h.svc.Update(context.Background(), ownerID, res.Transaction.ID, UpdateInput{
		Description: &desc, Type: &typ, Date: &date,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	txn := updated.Transaction
	if txn.Description != desc || txn.Type != domain.Expense || !txn.Date.Equal(date) {
		t.Fatalf("got %+v", txn)
	}
	if txn.Amount != 100 || len(txn.Items) != 1 {
		t.Fatal("scalar update must not touch items")
	}
}

func TestUpdateItemsResyncsDebtAmount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.mustCreate(t, h.creditCreate(3000, 2000)) // amount 5000, debtAmount 5000
	txnID := res.Transaction.ID
	debtID := res.Debt.ID

	// growing the amount leaves the debt contribution alone
	grown, err := h.svc.Update(ctx, ownerID, txnID, UpdateInput{
		Items: []ItemInput{{CategoryID: h.catA, Amount: 3000}},
	})
	if err != nil {
		t.Fatalf("grow items: %v", err)
	}
	if grown.Transaction.Amount != 8000 {
		t.Fatalf("amount = %d, want 8000", grown.Transaction.Amount)
	}
	if *grown.Transaction.DebtAmount != 5000 {
		t.Fatalf("debt amount = %d, want unchanged 5000", *grown.Transaction.DebtAmount)
	}
	if debt := h.debtState(t, debtID); debt.TotalAmount != 5000 {
		t.Fatalf("debt total = %d, want untouched 5000", debt.TotalAmount)
	}

	// shrinking below the contribution pulls the ledger down with it:
	// drop everything but the first 3000 item
	var removeIDs []int64
	for _, it := range grown.Transaction.Items[1:] {
		removeIDs = append(removeIDs, it.ID)
	}
	shrunk, err := h.svc.Update(ctx, ownerID, txnID, UpdateInput{RemoveItemIDs: removeIDs})
	if err != nil {
		t.Fatalf("shrink items: %v", err)
	}
	if shrunk.Transaction.Amount != 3000 {
		t.Fatalf("amount = %d, want 3000", shrunk.Transaction.Amount)
	}
	if *shrunk.Transaction.DebtAmount != 3000 {
		t.Fatalf("debt amount = %d, want resynced to 3000", *shrunk.Transaction.DebtAmount)
	}
	debt := h.debtState(t, debtID)
	if debt.TotalAmount != 3000 || debt.Status != domain.DebtPending {
		t.Fatalf("got debt total=%d status=%s", debt.TotalAmount, debt.Status)
	}
}

func TestUpdateReplacesItemByID(t *testing.T) {
	h := newHarness(t)
	res := h.mustCreate(t, CreateInput{Items: []ItemInput{{CategoryID: h.catA, Amount: 1000}}})
	itemID := res.Transaction.Items[0].ID

	updated, err := h.svc.Update(context.Background(), ownerID, res.Transaction.ID, UpdateInput{
		Items: []ItemInput{{ID: itemID, CategoryID: h.catB, Amount: 2500}},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	txn := updated.Transaction
	if len(txn.Items) != 1 || txn.Items[0].ID != itemID {
		t.Fatalf("got items %+v", txn.Items)
	}
	if txn.Items[0].CategoryID != h.catB || txn.Amount != 2500 {
		t.Fatalf("got category=%d amount=%d", txn.Items[0].CategoryID, txn.Amount)
	}
}

func TestUpdateRejectsEmptyItemSet(t *testing.T) {
	h := newHarness(t)
	res := h.mustCreate(t, CreateInput{Items: []ItemInput{{CategoryID: h.catA, Amount: 1000}}})

	_, err := h.svc.Update(context.Background(), ownerID, res.Transaction.ID, UpdateInput{
		RemoveItemIDs: []int64{res.Transaction.Items[0].ID},
	})
	if !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("got %v, want ErrInvalid", err)
	}
	after, err := h.svc.Get(context.Background(), ownerID, res.Transaction.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(after.Transaction.Items) != 1 || after.Transaction.Amount != 1000 {
		t.Fatalf("failed update must leave the transaction intact, got %+v", after.Transaction)
	}
}

func TestUpdateCreditFlagFalseUnlinks(t *testing.T) {
	h := newHarness(t)
	res := h.mustCreate(t, h.creditCreate(3000, 2000))
	debtID := res.Debt.ID

	off := false
	updated, err := h.svc.Update(context.Background(), ownerID, res.Transaction.ID, UpdateInput{IsCredit: &off})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Transaction.IsCredit() || updated.Debt != nil {
		t.Fatal("credit link must be cleared")
	}
	debt := h.debtState(t, debtID)
	if debt.TotalAmount != 0 || debt.Status != domain.DebtPaid {
		t.Fatalf("got debt total=%d status=%s, want fully reversed", debt.TotalAmount, debt.Status)
	}
}

func TestUpdateCreditFlagTrueLinksExisting(t *testing.T) {
	h := newHarness(t)
	debt, err := h.debts.Create(context.Background(), ownerID, ledger.CreateInput{
		DocumentNumber: "555", FirstName: "Luis", LastName: "Diaz", Phone: "555-0200",
		TotalAmount: 4000,
	})
	if err != nil {
		t.Fatalf("seed debt: %v", err)
	}
	res := h.mustCreate(t, CreateInput{Items: []ItemInput{{CategoryID: h.catA, Amount: 2000}}})

	on := true
	updated, err := h.svc.Update(context.Background(), ownerID, res.Transaction.ID, UpdateInput{
		IsCredit: &on, ExistingDebtID: debt.ID,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if *updated.Transaction.CustomerDebtID != debt.ID || *updated.Transaction.DebtAmount != 2000 {
		t.Fatalf("got link %+v", updated.Transaction)
	}
	if updated.Debt.TotalAmount != 6000 {
		t.Fatalf("debt total = %d, want 6000", updated.Debt.TotalAmount)
	}
}

func TestUpdateCreditFlagSwitchesDebt(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.mustCreate(t, h.creditCreate(3000, 2000))
	oldDebtID := res.Debt.ID

	other, err := h.debts.Create(ctx, ownerID, ledger.CreateInput{
		DocumentNumber: "555", FirstName: "Luis", LastName: "Diaz", Phone: "555-0200",
		TotalAmount: 1000,
	})
	if err != nil {
		t.Fatalf("seed debt: %v", err)
	}

	on := true
	updated, err := h.svc.Update(ctx, ownerID, res.Transaction.ID, UpdateInput{
		IsCredit: &on, ExistingDebtID: other.ID,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if *updated.Transaction.CustomerDebtID != other.ID {
		t.Fatal("transaction must follow the new debt")
	}
	if old := h.debtState(t, oldDebtID); old.TotalAmount != 0 {
		t.Fatalf("old debt total = %d, want reversed to 0", old.TotalAmount)
	}
	if updated.Debt.TotalAmount != 6000 {
		t.Fatalf("new debt total = %d, want 1000 + 5000", updated.Debt.TotalAmount)
	}
}

func TestUpdateCreditWithoutTargetRejected(t *testing.T) {
	h := newHarness(t)
	res := h.mustCreate(t, CreateInput{Items: []ItemInput{{CategoryID: h.catA, Amount: 2000}}})

	on := true
	_, err := h.svc.Update(context.Background(), ownerID, res.Transaction.ID, UpdateInput{IsCredit: &on})
	if !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("got %v, want ErrInvalid", err)
	}
}

func TestDeleteReversesCredit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	seed, err := h.debts.Create(ctx, ownerID, ledger.CreateInput{
		DocumentNumber: "555", FirstName: "Luis", LastName: "Diaz", Phone: "555-0200",
		TotalAmount: 10000, PaidAmount: 4000,
	})
	if err != nil {
		t.Fatalf("seed debt: %v", err)
	}
	res := h.mustCreate(t, CreateInput{
		Items:          []ItemInput{{CategoryID: h.catA, Amount: 3000}},
		IsCredit:       true,
		ExistingDebtID: seed.ID,
	})

	if err := h.svc.Delete(ctx, ownerID, res.Transaction.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	debt := h.debtState(t, seed.ID)
	if debt.TotalAmount != 10000 || debt.PaidAmount != 4000 || debt.Status != domain.DebtPartial {
		t.Fatalf("got total=%d paid=%d status=%s, want original state back", debt.TotalAmount, debt.PaidAmount, debt.Status)
	}
	if _, err := h.svc.Get(ctx, ownerID, res.Transaction.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound after delete", err)
	}
}

func TestDeleteClampsConsumedPayments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.mustCreate(t, h.creditCreate(2000, 2000)) // debt total 4000
	debtID := first.Debt.ID
	h.mustCreate(t, CreateInput{
		Items:          []ItemInput{{CategoryID: h.catA, Amount: 6000}},
		IsCredit:       true,
		ExistingDebtID: debtID,
	}) // debt total 10000

	if _, err := h.debts.RegisterPayment(ctx, ownerID, debtID, 8000); err != nil {
		t.Fatalf("payment: %v", err)
	}

	// removing the first sale leaves total 6000 < paid 8000: paid clamps down
	if err := h.svc.Delete(ctx, ownerID, first.Transaction.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	debt := h.debtState(t, debtID)
	if debt.TotalAmount != 6000 || debt.PaidAmount != 6000 || debt.Status != domain.DebtPaid {
		t.Fatalf("got total=%d paid=%d status=%s", debt.TotalAmount, debt.PaidAmount, debt.Status)
	}
	if debt.RemainingAmount != 0 {
		t.Fatalf("remaining = %d, want 0", debt.RemainingAmount)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.mustCreate(t, CreateInput{Items: []ItemInput{{CategoryID: h.catA, Amount: 100}}})

	const intruder int64 = 2
	if _, err := h.svc.Get(ctx, intruder, res.Transaction.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("get: got %v, want ErrNotFound", err)
	}
	if err := h.svc.Delete(ctx, intruder, res.Transaction.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("delete: got %v, want ErrNotFound", err)
	}
}
