// Package memory is an in-memory implementation of the store contracts,
// used by tests. It is not safe for concurrent use.
package memory

import (
	"context"
	"time"

	"github.com/EmanuelCordobaLion/cuadernito-api/internal/core/domain"
)

type Store struct {
	users        map[int64]domain.User
	apiKeys      map[string]int64 // key hash -> user id
	categories   map[int64]domain.Category
	debts        map[int64]domain.CustomerDebt
	transactions map[int64]domain.Transaction
	idempotency  map[string]cached
	nextID       int64
}

type cached struct {
	status int
	body   []byte
}

func New() *Store {
	return &Store{
		users:        make(map[int64]domain.User),
		apiKeys:      make(map[string]int64),
		categories:   make(map[int64]domain.Category),
		debts:        make(map[int64]domain.CustomerDebt),
		transactions: make(map[int64]domain.Transaction),
		idempotency:  make(map[string]cached),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// RunInTx satisfies the core TxRunner contracts. Tests are single-threaded,
// so fn runs directly with no transaction semantics.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *Store) Users() *Users               { return &Users{s} }
func (s *Store) Categories() *Categories     { return &Categories{s} }
func (s *Store) Debts() *Debts               { return &Debts{s} }
func (s *Store) Transactions() *Transactions { return &Transactions{s} }
func (s *Store) Idempotency() *Idempotency   { return &Idempotency{s} }

type Users struct{ s *Store }

func (u *Users) Create(ctx context.Context, user *domain.User) error {
	user.ID = u.s.id()
	user.CreatedAt = time.Now()
	u.s.users[user.ID] = *user
	return nil
}

func (u *Users) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, usr := range u.s.users {
		if usr.Email == email {
			usr := usr
			return &usr, nil
		}
	}
	return nil, domain.NotFoundf("user")
}

func (u *Users) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	usr, ok := u.s.users[id]
	if !ok {
		return nil, domain.NotFoundf("user %d", id)
	}
	return &usr, nil
}

func (u *Users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := u.FindByEmail(ctx, email)
	return err == nil, nil
}

func (u *Users) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	usr, ok := u.s.users[userID]
	if !ok {
		return domain.NotFoundf("user %d", userID)
	}
	usr.PasswordHash = passwordHash
	u.s.users[userID] = usr
	return nil
}

func (u *Users) SaveAPIKey(ctx context.Context, userID int64, keyHash, keyPrefix string) error {
	u.s.apiKeys[keyHash] = userID
	return nil
}

func (u *Users) ResolveAPIKey(ctx context.Context, keyHash string) (int64, error) {
	userID, ok := u.s.apiKeys[keyHash]
	if !ok {
		return 0, domain.NotFoundf("api key")
	}
	return userID, nil
}

type Categories struct{ s *Store }

func (c *Categories) Create(ctx context.Context, category *domain.Category) error {
	category.ID = c.s.id()
	category.CreatedAt = time.Now()
	c.s.categories[category.ID] = *category
	return nil
}

func (c *Categories) FindOwned(ctx context.Context, id, userID int64) (*domain.Category, error) {
	cat, ok := c.s.categories[id]
	if !ok || cat.UserID != userID {
		return nil, domain.NotFoundf("category %d", id)
	}
	return &cat, nil
}

func (c *Categories) List(ctx context.Context, userID int64) ([]domain.Category, error) {
	var out []domain.Category
	for id := int64(1); id <= c.s.nextID; id++ {
		if cat, ok := c.s.categories[id]; ok && cat.UserID == userID {
			out = append(out, cat)
		}
	}
	return out, nil
}

func (c *Categories) Update(ctx context.Context, category *domain.Category) error {
	cat, ok := c.s.categories[category.ID]
	if !ok || cat.UserID != category.UserID {
		return domain.NotFoundf("category %d", category.ID)
	}
	c.s.categories[category.ID] = *category
	return nil
}

type Debts struct{ s *Store }

func (d *Debts) FindOwned(ctx context.Context, id, userID int64) (*domain.CustomerDebt, error) {
	debt, ok := d.s.debts[id]
	if !ok || debt.UserID != userID {
		return nil, domain.NotFoundf("customer debt %d", id)
	}
	return &debt, nil
}

func (d *Debts) FindByDocument(ctx context.Context, userID int64, documentNumber string) (*domain.CustomerDebt, error) {
	for _, debt := range d.s.debts {
		if debt.UserID == userID && debt.DocumentNumber == documentNumber {
			debt := debt
			return &debt, nil
		}
	}
	return nil, nil
}

func (d *Debts) List(ctx context.Context, userID int64) ([]domain.CustomerDebt, error) {
	var out []domain.CustomerDebt
	for id := int64(1); id <= d.s.nextID; id++ {
		if debt, ok := d.s.debts[id]; ok && debt.UserID == userID {
			out = append(out, debt)
		}
	}
	return out, nil
}

func (d *Debts) Save(ctx context.Context, debt *domain.CustomerDebt) error {
	if debt.ID == 0 {
		debt.ID = d.s.id()
		debt.CreatedAt = time.Now()
	}
	d.s.debts[debt.ID] = *debt
	return nil
}

func (d *Debts) Delete(ctx context.Context, id, userID int64) error {
	debt, ok := d.s.debts[id]
	if !ok || debt.UserID != userID {
		return domain.NotFoundf("customer debt %d", id)
	}
	delete(d.s.debts, id)
	for txnID, txn := range d.s.transactions {
		if txn.CustomerDebtID != nil && *txn.CustomerDebtID == id {
			txn.CustomerDebtID = nil
			txn.DebtAmount = nil
			d.s.transactions[txnID] = txn
		}
	}
	return nil
}

type Transactions struct{ s *Store }

func (t *Transactions) FindOwned(ctx context.Context, id, userID int64) (*domain.Transaction, error) {
	txn, ok := t.s.transactions[id]
	if !ok || txn.UserID != userID {
		return nil, domain.NotFoundf("transaction %d", id)
	}
	return copyTxn(txn), nil
}

func (t *Transactions) List(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for id := int64(1); id <= t.s.nextID; id++ {
		if txn, ok := t.s.transactions[id]; ok && txn.UserID == userID {
			out = append(out, *copyTxn(txn))
		}
	}
	return out, nil
}

func (t *Transactions) Save(ctx context.Context, txn *domain.Transaction) error {
	if txn.ID == 0 {
		txn.ID = t.s.id()
		txn.CreatedAt = time.Now()
		saved := *copyTxn(*txn)
		saved.Items = nil // item persistence goes through SaveItem
		t.s.transactions[txn.ID] = saved
		return nil
	}
	stored, ok := t.s.transactions[txn.ID]
	if !ok || stored.UserID != txn.UserID {
		return domain.NotFoundf("transaction %d", txn.ID)
	}
	updated := *copyTxn(*txn)
	updated.Items = stored.Items
	t.s.transactions[txn.ID] = updated
	return nil
}

func (t *Transactions) Delete(ctx context.Context, id, userID int64) error {
	txn, ok := t.s.transactions[id]
	if !ok || txn.UserID != userID {
		return domain.NotFoundf("transaction %d", id)
	}
	delete(t.s.transactions, id)
	return nil
}

func (t *Transactions) SaveItem(ctx context.Context, transactionID int64, item *domain.TransactionItem) error {
	txn, ok := t.s.transactions[transactionID]
	if !ok {
		return domain.NotFoundf("transaction %d", transactionID)
	}
	if item.ID == 0 {
		item.ID = t.s.id()
		item.CreatedAt = time.Now()
		txn.Items = append(append([]domain.TransactionItem{}, txn.Items...), *item)
		t.s.transactions[transactionID] = txn
		return nil
	}
	items := append([]domain.TransactionItem{}, txn.Items...)
	for i := range items {
		if items[i].ID == item.ID {
			items[i] = *item
			txn.Items = items
			t.s.transactions[transactionID] = txn
			return nil
		}
	}
	return domain.NotFoundf("item %d", item.ID)
}

func (t *Transactions) DeleteItem(ctx context.Context, itemID int64) error {
	for txnID, txn := range t.s.transactions {
		for i, it := range txn.Items {
			if it.ID == itemID {
				items := append([]domain.TransactionItem{}, txn.Items...)
				txn.Items = append(items[:i], items[i+1:]...)
				t.s.transactions[txnID] = txn
				return nil
			}
		}
	}
	return domain.NotFoundf("item %d", itemID)
}

type Idempotency struct{ s *Store }

func (i *Idempotency) GetCached(ctx context.Context, key string) (int, []byte, bool, error) {
	c, ok := i.s.idempotency[key]
	if !ok {
		return 0, nil, false, nil
	}
	return c.status, c.body, true, nil
}

func (i *Idempotency) SaveCached(ctx context.Context, key string, status int, body []byte) error {
	i.s.idempotency[key] = cached{status: status, body: body}
	return nil
}

func copyTxn(t domain.Transaction) *domain.Transaction {
	out := t
	out.Items = append([]domain.TransactionItem{}, t.Items...)
	if t.CustomerDebtID != nil {
		v := *t.CustomerDebtID
		out.CustomerDebtID = &v
	}
	if t.DebtAmount != nil {
		v := *t.DebtAmount
		out.DebtAmount = &v
	}
	return &out
}
