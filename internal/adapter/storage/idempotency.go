package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// IdempotencyRepository backs the idempotency middleware's response cache.
type IdempotencyRepository struct {
	db *DB
}

func NewIdempotencyRepository(db *DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// GetCached returns the stored response for a key; ok is false on a miss.
func (r *IdempotencyRepository) GetCached(ctx context.Context, key string) (status int, body []byte, ok bool, err error) {
	err = r.db.q(ctx).QueryRow(ctx,
		`SELECT response_status, response_body FROM idempotency_keys WHERE key_id = $1`,
		key).Scan(&status, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil, false, nil
	}
	if err != nil {
		return 0, nil, false, err
	}
	return status, body, true, nil
}

func (r *IdempotencyRepository) SaveCached(ctx context.Context, key string, status int, body []byte) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO idempotency_keys (key_id, response_status, response_body)
		VALUES ($1, $2, $3) ON CONFLICT DO NOTHING
	`, key, status, body)
	return err
}
