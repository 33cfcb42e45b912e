package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ServiceKey identifies a trusted caller of the engine's service API — the
// job-assignment workflow and internal tooling. Keys are stored hashed.
type ServiceKey struct {
	ID        uuid.UUID
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

type ServiceKeyRepo struct {
	pool *pgxpool.Pool
}

func NewServiceKeyRepo(pool *pgxpool.Pool) *ServiceKeyRepo {
	return &ServiceKeyRepo{pool: pool}
}

// FindByKeyHash resolves an active key by its SHA-256 hash.
func (r *ServiceKeyRepo) FindByKeyHash(ctx context.Context, keyHash string) (*ServiceKey, error) {
	var k ServiceKey
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, is_active, created_at
		FROM service_api_keys
		WHERE key_hash = $1 AND is_active = TRUE
	`, keyHash).Scan(&k.ID, &k.Name, &k.IsActive, &k.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &k, nil
}
