package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TenantStatus enumerates the lifecycle states of a tenant. Tenants are
// never deleted; suspension is the only disable path.
type TenantStatus string

const (
	TenantPending   TenantStatus = "pending"
	TenantActive    TenantStatus = "active"
	TenantSuspended TenantStatus = "suspended"
)

// Tenant is one restaurant customer account.
type Tenant struct {
	ID         uuid.UUID
	Name       string
	Slug       string
	Status     TenantStatus
	Timezone   string
	Currency   string
	Email      string
	Phone      string
	Website    string
	Address    string
	OwnerEmail string  // unique across tenants once set
	OwnerID    *string // identity-provider principal id, nil until provisioned
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type TenantRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	GetByOwnerEmail(ctx context.Context, email string) (*Tenant, error)
	Update(ctx context.Context, t *Tenant) error
	SetStatus(ctx context.Context, id uuid.UUID, status TenantStatus) error
	// SetOwner back-fills the owner principal id after identity creation and
	// flips a pending tenant to active. Re-running it with the same id is a
	// no-op.
	SetOwner(ctx context.Context, id uuid.UUID, ownerID string) error
	ListPaginated(ctx context.Context, limit, offset int) ([]*Tenant, error)
}
