package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates ledger states. Transitions are monotonic:
// pending -> completed or pending -> failed, never back.
type AttemptStatus string

const (
	AttemptPending   AttemptStatus = "pending"
	AttemptCompleted AttemptStatus = "completed"
	AttemptFailed    AttemptStatus = "failed"
)

// ProvisioningAttempt is the persisted ledger row recording one attempt to
// provision a tenant. It is what makes the two-phase flow (database
// transaction, then out-of-band identity creation) safely retryable under
// the same idempotency key.
type ProvisioningAttempt struct {
	ID             uuid.UUID
	IdempotencyKey string
	Slug           string
	OwnerEmail     string
	TenantID       *uuid.UUID // nil until the transaction commits
	OwnerID        *string    // nil until identity creation succeeds
	Status         AttemptStatus
	LastError      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type ProvisioningRepository interface {
	// Begin runs the atomic provisioning transaction: it inserts the ledger
	// row and the tenant row in a single database transaction. Uniqueness of
	// slug, owner email, and idempotency key is enforced by storage
	// constraints; violations come back as ErrDuplicateSlug,
	// ErrEmailUnavailable, or ErrDuplicateRequest respectively.
	Begin(ctx context.Context, attempt *ProvisioningAttempt, tenant *Tenant) error

	GetByKey(ctx context.Context, idempotencyKey string) (*ProvisioningAttempt, error)

	// Complete marks the attempt completed and records the owner principal
	// id. Idempotent: re-running with unchanged values is a no-op.
	Complete(ctx context.Context, id uuid.UUID, ownerID string) error

	// Fail marks the attempt failed terminally. Used only for attempts whose
	// transaction never committed a tenant; a pending attempt with a tenant
	// id stays pending so the caller can retry the identity step.
	Fail(ctx context.Context, id uuid.UUID, reason string) error

	// RecordError stores the latest identity-step error without leaving the
	// pending state.
	RecordError(ctx context.Context, id uuid.UUID, reason string) error
}
