package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/platewise/platewise/internal/domain"
)

type ProvisioningRepo struct {
	pool *pgxpool.Pool
}

func NewProvisioningRepo(pool *pgxpool.Pool) *ProvisioningRepo {
	return &ProvisioningRepo{pool: pool}
}

// Begin inserts the tenant row and the ledger row in one transaction. The
// tenant row must go first: the ledger's tenant_id references tenants(id)
// and the foreign key is checked at the end of each statement. A concurrent
// request with the same idempotency key still loses on the ledger's key
// constraint, which aborts the whole transaction and takes the tenant row
// with it. Slug and owner-email races are closed by the tenants table's own
// unique constraints, not by pre-checks.
func (r *ProvisioningRepo) Begin(ctx context.Context, attempt *domain.ProvisioningAttempt, tenant *domain.Tenant) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("provisioningRepo.Begin: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := insertTenantThenAttempt(ctx, tx, attempt, tenant); err != nil {
		return fmt.Errorf("provisioningRepo.Begin: %w", err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return fmt.Errorf("provisioningRepo.Begin: commit: %w", err)
	}

	tid := tenant.ID
	attempt.TenantID = &tid
	attempt.Status = domain.AttemptPending
	return nil
}

// execer is the slice of pgx.Tx the insert sequence needs.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insertTenantThenAttempt(ctx context.Context, tx execer, attempt *domain.ProvisioningAttempt, tenant *domain.Tenant) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO tenants
		   (id, name, slug, status, timezone, currency, email, phone, website,
		    address, owner_email, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`,
		tenant.ID, tenant.Name, tenant.Slug, tenant.Status, tenant.Timezone,
		tenant.Currency, tenant.Email, tenant.Phone, tenant.Website,
		tenant.Address, tenant.OwnerEmail, tenant.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("tenant insert: %w", classifyUnique(err))
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO provisioning_attempts
		   (id, idempotency_key, slug, owner_email, tenant_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, 'pending', $6, $6)`,
		attempt.ID, attempt.IdempotencyKey, attempt.Slug, attempt.OwnerEmail,
		tenant.ID, attempt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("ledger insert: %w", classifyUnique(err))
	}

	return nil
}

func (r *ProvisioningRepo) GetByKey(ctx context.Context, idempotencyKey string) (*domain.ProvisioningAttempt, error) {
	var a domain.ProvisioningAttempt

	err := r.pool.QueryRow(ctx,
		`SELECT id, idempotency_key, slug, owner_email, tenant_id, owner_id,
		        status, last_error, created_at, updated_at
		 FROM provisioning_attempts WHERE idempotency_key = $1`,
		idempotencyKey,
	).Scan(
		&a.ID, &a.IdempotencyKey, &a.Slug, &a.OwnerEmail, &a.TenantID,
		&a.OwnerID, &a.Status, &a.LastError, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("provisioningRepo.GetByKey: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("provisioningRepo.GetByKey: %w", err)
	}

	return &a, nil
}

// Complete is idempotent: replaying it against an already-completed attempt
// with the same owner id matches the WHERE clause and is a no-op in effect.
// The status guard keeps a failed attempt from being resurrected.
func (r *ProvisioningRepo) Complete(ctx context.Context, id uuid.UUID, ownerID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE provisioning_attempts
		 SET owner_id = $1, status = 'completed', last_error = '', updated_at = now()
		 WHERE id = $2
		   AND (status = 'pending' OR (status = 'completed' AND owner_id = $1))`,
		ownerID, id,
	)
	if err != nil {
		return fmt.Errorf("provisioningRepo.Complete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("provisioningRepo.Complete: %w", domain.ErrConflict)
	}
	return nil
}

func (r *ProvisioningRepo) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE provisioning_attempts
		 SET status = 'failed', last_error = $1, updated_at = now()
		 WHERE id = $2 AND status = 'pending'`,
		reason, id,
	)
	if err != nil {
		return fmt.Errorf("provisioningRepo.Fail: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("provisioningRepo.Fail: %w", domain.ErrConflict)
	}
	return nil
}

func (r *ProvisioningRepo) RecordError(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE provisioning_attempts
		 SET last_error = $1, updated_at = now()
		 WHERE id = $2 AND status = 'pending'`,
		reason, id,
	)
	if err != nil {
		return fmt.Errorf("provisioningRepo.RecordError: %w", err)
	}
	return nil
}
