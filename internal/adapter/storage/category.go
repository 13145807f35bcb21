package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/EmanuelCordobaLion/cuadernito-api/internal/core/domain"
)

type CategoryRepository struct {
	db *DB
}

func NewCategoryRepository(db *DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (name, user_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	return r.db.q(ctx).QueryRow(ctx, query, category.Name, category.UserID).
		Scan(&category.ID, &category.CreatedAt)
}

// FindOwned returns the category only when it belongs to userID. A foreign
// category is a plain not-found, never a permission error.
func (r *CategoryRepository) FindOwned(ctx context.Context, id, userID int64) (*domain.Category, error) {
	query := `SELECT id, name, user_id, created_at FROM categories WHERE id = $1 AND user_id = $2`
	var c domain.Category
	err := r.db.q(ctx).QueryRow(ctx, query, id, userID).
		Scan(&c.ID, &c.Name, &c.UserID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFoundf("category %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepository) List(ctx context.Context, userID int64) ([]domain.Category, error) {
	rows, err := r.db.q(ctx).Query(ctx,
		`SELECT id, name, user_id, created_at FROM categories WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.UserID, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	tag, err := r.db.q(ctx).Exec(ctx,
		`UPDATE categories SET name = $1 WHERE id = $2 AND user_id = $3`,
		category.Name, category.ID, category.UserID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("category %d", category.ID)
	}
	return nil
}
