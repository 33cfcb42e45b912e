package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, email, passwordHash, displayName string) (*Admin, error) {
	var a Admin
	err := r.pool.QueryRow(ctx, `
		INSERT INTO admin_accounts (email, password_hash, display_name)
		VALUES ($1, $2, $3)
		RETURNING id, email, display_name
	`, email, passwordHash, displayName).Scan(&a.ID, &a.Email, &a.DisplayName)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByEmail returns the admin and password hash, or (nil, "", nil) when the
// email is unknown.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Admin, string, error) {
	var a Admin
	var hash string
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, display_name, password_hash
		FROM admin_accounts WHERE email = $1
	`, email).Scan(&a.ID, &a.Email, &a.DisplayName, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return &a, hash, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Admin, error) {
	var a Admin
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, display_name FROM admin_accounts WHERE id = $1
	`, id).Scan(&a.ID, &a.Email, &a.DisplayName)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
