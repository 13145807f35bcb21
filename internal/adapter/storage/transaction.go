package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/EmanuelCordobaLion/cuadernito-api/internal/core/domain"
)

// TransactionRepository persists transactions and their item sets. It backs
// both the TransactionStore and ItemStore contracts of the reconciler.
type TransactionRepository struct {
	db *DB
}

func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) FindOwned(ctx context.Context, id, userID int64) (*domain.Transaction, error) {
	query := `
		SELECT id, amount, description, type, date, user_id, customer_debt_id, debt_amount, created_at
		FROM transactions WHERE id = $1 AND user_id = $2
	`
	var t domain.Transaction
	err := r.db.q(ctx).QueryRow(ctx, query, id, userID).Scan(
		&t.ID, &t.Amount, &t.Description, &t.Type, &t.Date, &t.UserID,
		&t.CustomerDebtID, &t.DebtAmount, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFoundf("transaction %d", id)
	}
	if err != nil {
		return nil, err
	}
	if t.Items, err = r.loadItems(ctx, t.ID); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) List(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	rows, err := r.db.q(ctx).Query(ctx, `
		SELECT id, amount, description, type, date, user_id, customer_debt_id, debt_amount, created_at
		FROM transactions WHERE user_id = $1 ORDER BY date DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.Amount, &t.Description, &t.Type, &t.Date, &t.UserID,
			&t.CustomerDebtID, &t.DebtAmount, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Items, err = r.loadItems(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *TransactionRepository) loadItems(ctx context.Context, transactionID int64) ([]domain.TransactionItem, error) {
	rows, err := r.db.q(ctx).Query(ctx, `
		SELECT id, category_id, amount, created_at
		FROM transaction_items WHERE transaction_id = $1 ORDER BY id
	`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.TransactionItem
	for rows.Next() {
		var it domain.TransactionItem
		if err := rows.Scan(&it.ID, &it.CategoryID, &it.Amount, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *TransactionRepository) Save(ctx context.Context, txn *domain.Transaction) error {
	if txn.ID == 0 {
		query := `
			INSERT INTO transactions (amount, description, type, date, user_id, customer_debt_id, debt_amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at
		`
		return r.db.q(ctx).QueryRow(ctx, query,
			txn.Amount, txn.Description, txn.Type, txn.Date, txn.UserID,
			txn.CustomerDebtID, txn.DebtAmount,
		).Scan(&txn.ID, &txn.CreatedAt)
	}

	query := `
		UPDATE transactions SET
			amount = $1, description = $2, type = $3, date = $4,
			customer_debt_id = $5, debt_amount = $6
		WHERE id = $7 AND user_id = $8
	`
	tag, err := r.db.q(ctx).Exec(ctx, query,
		txn.Amount, txn.Description, txn.Type, txn.Date,
		txn.CustomerDebtID, txn.DebtAmount, txn.ID, txn.UserID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("transaction %d", txn.ID)
	}
	return nil
}

func (r *TransactionRepository) Delete(ctx context.Context, id, userID int64) error {
	// items go with the transaction via ON DELETE CASCADE
	tag, err := r.db.q(ctx).Exec(ctx,
		`DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("transaction %d", id)
	}
	return nil
}

// SaveItem inserts the item when it has no id yet, otherwise updates it.
func (r *TransactionRepository) SaveItem(ctx context.Context, transactionID int64, item *domain.TransactionItem) error {
	if item.ID == 0 {
		return r.db.q(ctx).QueryRow(ctx, `
			INSERT INTO transaction_items (transaction_id, category_id, amount)
			VALUES ($1, $2, $3) RETURNING id, created_at
		`, transactionID, item.CategoryID, item.Amount).Scan(&item.ID, &item.CreatedAt)
	}

	_, err := r.db.q(ctx).Exec(ctx, `
		UPDATE transaction_items SET category_id = $1, amount = $2
		WHERE id = $3 AND transaction_id = $4
	`, item.CategoryID, item.Amount, item.ID, transactionID)
	return err
}

func (r *TransactionRepository) DeleteItem(ctx context.Context, itemID int64) error {
	_, err := r.db.q(ctx).Exec(ctx, `DELETE FROM transaction_items WHERE id = $1`, itemID)
	return err
}
