package repository

import (
	"context"
	"strings"

	"github.com/brightboard/brightboard-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TenantRepository handles tenant (teacher account) data access.
type TenantRepository struct {
	pool *pgxpool.Pool
}

// NewTenantRepository creates a new TenantRepository.
func NewTenantRepository(pool *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{pool: pool}
}

// Create inserts a tenant. Email is case-folded before storage.
func (r *TenantRepository) Create(ctx context.Context, t *model.Tenant) error {
	t.Email = strings.ToLower(strings.TrimSpace(t.Email))
	err := r.pool.QueryRow(ctx,
		`INSERT INTO tenants (email, password_hash, is_active)
		 VALUES ($1, $2, TRUE)
		 RETURNING id, created_at`,
		t.Email, t.PasswordHash,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return mapError(err, "tenant")
	}
	t.IsActive = true
	return nil
}

// GetByEmail retrieves a tenant by case-folded email.
func (r *TenantRepository) GetByEmail(ctx context.Context, email string) (*model.Tenant, error) {
	t := &model.Tenant{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, is_active, created_at
		 FROM tenants
		 WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&t.ID, &t.Email, &t.PasswordHash, &t.IsActive, &t.CreatedAt)
	if err != nil {
		return nil, mapError(err, "tenant")
	}
	return t, nil
}

// GetByID retrieves a tenant by id.
func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Tenant, error) {
	t := &model.Tenant{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, is_active, created_at
		 FROM tenants
		 WHERE id = $1`, id,
	).Scan(&t.ID, &t.Email, &t.PasswordHash, &t.IsActive, &t.CreatedAt)
	if err != nil {
		return nil, mapError(err, "tenant")
	}
	return t, nil
}
