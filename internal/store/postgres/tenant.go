package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/platewise/platewise/internal/domain"
)

type TenantRepo struct {
	pool *pgxpool.Pool
}

func NewTenantRepo(pool *pgxpool.Pool) *TenantRepo {
	return &TenantRepo{pool: pool}
}

const tenantColumns = `id, name, slug, status, timezone, currency, email, phone,
	website, address, owner_email, owner_id, created_at, updated_at`

func scanTenant(row pgx.Row) (*domain.Tenant, error) {
	var t domain.Tenant
	err := row.Scan(
		&t.ID, &t.Name, &t.Slug, &t.Status, &t.Timezone, &t.Currency,
		&t.Email, &t.Phone, &t.Website, &t.Address, &t.OwnerEmail,
		&t.OwnerID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	t, err := scanTenant(r.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("tenantRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.GetByID: %w", err)
	}
	return t, nil
}

func (r *TenantRepo) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	t, err := scanTenant(r.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("tenantRepo.GetBySlug: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.GetBySlug: %w", err)
	}
	return t, nil
}

func (r *TenantRepo) GetByOwnerEmail(ctx context.Context, email string) (*domain.Tenant, error) {
	t, err := scanTenant(r.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE owner_email = $1`, email,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("tenantRepo.GetByOwnerEmail: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.GetByOwnerEmail: %w", err)
	}
	return t, nil
}

func (r *TenantRepo) Update(ctx context.Context, t *domain.Tenant) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tenants SET name = $1, timezone = $2, currency = $3, email = $4,
		 phone = $5, website = $6, address = $7, updated_at = now()
		 WHERE id = $8`,
		t.Name, t.Timezone, t.Currency, t.Email, t.Phone, t.Website, t.Address, t.ID,
	)
	if err != nil {
		return fmt.Errorf("tenantRepo.Update: %w", classifyUnique(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tenantRepo.Update: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *TenantRepo) SetStatus(ctx context.Context, id uuid.UUID, status domain.TenantStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tenants SET status = $1, updated_at = now() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("tenantRepo.SetStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tenantRepo.SetStatus: %w", domain.ErrNotFound)
	}
	return nil
}

// SetOwner back-fills the owner principal id after identity creation and
// activates a pending tenant. The WHERE clause tolerates replays: a second
// run with the same owner id matches the already-updated row and changes
// nothing material.
func (r *TenantRepo) SetOwner(ctx context.Context, id uuid.UUID, ownerID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tenants
		 SET owner_id = $1,
		     status = CASE WHEN status = 'pending' THEN 'active' ELSE status END,
		     updated_at = now()
		 WHERE id = $2 AND (owner_id IS NULL OR owner_id = $1)`,
		ownerID, id,
	)
	if err != nil {
		return fmt.Errorf("tenantRepo.SetOwner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tenantRepo.SetOwner: %w", domain.ErrConflict)
	}
	return nil
}

func (r *TenantRepo) ListPaginated(ctx context.Context, limit, offset int) ([]*domain.Tenant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+tenantColumns+` FROM tenants ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.ListPaginated: %w", err)
	}
	defer rows.Close()

	var tenants []*domain.Tenant
	for rows.Next() {
		t, scanErr := scanTenant(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("tenantRepo.ListPaginated: scan: %w", scanErr)
		}
		tenants = append(tenants, t)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.ListPaginated: rows: %w", err)
	}

	return tenants, nil
}
