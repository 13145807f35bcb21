package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/EmanuelCordobaLion/cuadernito-api/internal/core/domain"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (first_name, last_name, email, password_hash, phone, address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.q(ctx).QueryRow(ctx, query,
		user.FirstName, user.LastName, user.Email, user.PasswordHash, user.Phone, user.Address,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, first_name, last_name, email, password_hash, phone, address, created_at
		FROM users WHERE email = $1
	`
	var u domain.User
	err := r.db.q(ctx).QueryRow(ctx, query, email).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Phone, &u.Address, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFoundf("user")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `
		SELECT id, first_name, last_name, email, password_hash, phone, address, created_at
		FROM users WHERE id = $1
	`
	var u domain.User
	err := r.db.q(ctx).QueryRow(ctx, query, id).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Phone, &u.Address, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFoundf("user %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.q(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	_, err := r.db.q(ctx).Exec(ctx,
		`UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userID)
	return err
}

// SaveAPIKey stores the hashed key for the user.
func (r *UserRepository) SaveAPIKey(ctx context.Context, userID int64, keyHash, keyPrefix string) error {
	_, err := r.db.q(ctx).Exec(ctx,
		`INSERT INTO api_keys (user_id, key_hash, key_prefix) VALUES ($1, $2, $3)`,
		userID, keyHash, keyPrefix)
	if err != nil {
		return fmt.Errorf("failed to save api key: %w", err)
	}
	return nil
}

// ResolveAPIKey maps a hashed API key to the owning user id.
func (r *UserRepository) ResolveAPIKey(ctx context.Context, keyHash string) (int64, error) {
	var userID int64
	err := r.db.q(ctx).QueryRow(ctx,
		`SELECT user_id FROM api_keys WHERE key_hash = $1`, keyHash).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.NotFoundf("api key")
	}
	if err != nil {
		return 0, err
	}
	return userID, nil
}
