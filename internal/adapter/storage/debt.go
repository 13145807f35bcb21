package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/EmanuelCordobaLion/cuadernito-api/internal/core/domain"
)

type DebtRepository struct {
	db *DB
}

func NewDebtRepository(db *DB) *DebtRepository {
	return &DebtRepository{db: db}
}

const debtColumns = `id, document_number, first_name, last_name, phone,
	total_amount, paid_amount, remaining_amount, status, user_id, created_at`

func scanDebt(row pgx.Row) (*domain.CustomerDebt, error) {
	var d domain.CustomerDebt
	err := row.Scan(&d.ID, &d.DocumentNumber, &d.FirstName, &d.LastName, &d.Phone,
		&d.TotalAmount, &d.PaidAmount, &d.RemainingAmount, &d.Status, &d.UserID, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// FindOwned loads a debt scoped to its owner. Inside RunInTx the row is
// locked (SELECT ... FOR UPDATE) so concurrent credit/payment writers to the
// same debt serialize.
func (r *DebtRepository) FindOwned(ctx context.Context, id, userID int64) (*domain.CustomerDebt, error) {
	query := `SELECT ` + debtColumns + ` FROM customer_debts WHERE id = $1 AND user_id = $2`
	if inTx(ctx) {
		query += ` FOR UPDATE`
	}
	debt, err := scanDebt(r.db.q(ctx).QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFoundf("customer debt %d", id)
	}
	if err != nil {
		return nil, err
	}
	return debt, nil
}

// FindByDocument is the dedup lookup for "same customer, new sale".
// Returns (nil, nil) when the owner has no debt with that document.
func (r *DebtRepository) FindByDocument(ctx context.Context, userID int64, documentNumber string) (*domain.CustomerDebt, error) {
	query := `SELECT ` + debtColumns + ` FROM customer_debts WHERE user_id = $1 AND document_number = $2`
	if inTx(ctx) {
		query += ` FOR UPDATE`
	}
	debt, err := scanDebt(r.db.q(ctx).QueryRow(ctx, query, userID, documentNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return debt, nil
}

func (r *DebtRepository) List(ctx context.Context, userID int64) ([]domain.CustomerDebt, error) {
	rows, err := r.db.q(ctx).Query(ctx,
		`SELECT `+debtColumns+` FROM customer_debts WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CustomerDebt
	for rows.Next() {
		var d domain.CustomerDebt
		if err := rows.Scan(&d.ID, &d.DocumentNumber, &d.FirstName, &d.LastName, &d.Phone,
			&d.TotalAmount, &d.PaidAmount, &d.RemainingAmount, &d.Status, &d.UserID, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Save inserts when the debt has no id yet, otherwise updates in place.
func (r *DebtRepository) Save(ctx context.Context, debt *domain.CustomerDebt) error {
	if debt.ID == 0 {
		query := `
			INSERT INTO customer_debts
				(document_number, first_name, last_name, phone, total_amount, paid_amount, remaining_amount, status, user_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, created_at
		`
		return r.db.q(ctx).QueryRow(ctx, query,
			debt.DocumentNumber, debt.FirstName, debt.LastName, debt.Phone,
			debt.TotalAmount, debt.PaidAmount, debt.RemainingAmount, debt.Status, debt.UserID,
		).Scan(&debt.ID, &debt.CreatedAt)
	}

	query := `
		UPDATE customer_debts SET
			document_number = $1, first_name = $2, last_name = $3, phone = $4,
			total_amount = $5, paid_amount = $6, remaining_amount = $7, status = $8
		WHERE id = $9 AND user_id = $10
	`
	tag, err := r.db.q(ctx).Exec(ctx, query,
		debt.DocumentNumber, debt.FirstName, debt.LastName, debt.Phone,
		debt.TotalAmount, debt.PaidAmount, debt.RemainingAmount, debt.Status,
		debt.ID, debt.UserID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("customer debt %d", debt.ID)
	}
	return nil
}

// Delete removes the debt and unlinks any transactions that referenced it so
// the "linked fields set together" invariant survives the delete.
func (r *DebtRepository) Delete(ctx context.Context, id, userID int64) error {
	return r.db.RunInTx(ctx, func(ctx context.Context) error {
		q := r.db.q(ctx)
		if _, err := q.Exec(ctx,
			`UPDATE transactions SET customer_debt_id = NULL, debt_amount = NULL
			 WHERE customer_debt_id = $1 AND user_id = $2`, id, userID); err != nil {
			return err
		}
		tag, err := q.Exec(ctx,
			`DELETE FROM customer_debts WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.NotFoundf("customer debt %d", id)
		}
		return nil
	})
}
