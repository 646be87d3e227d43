package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Admin roles.
const (
	RoleSuperadmin = "superadmin"
	RoleSupport    = "support"
)

// Admin is a dashboard operator. Admins are local principals; tenant owners
// live at the identity provider.
type Admin struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string // argon2id
	Name         string
	Role         string // "superadmin" or "support"
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type AdminRepository interface {
	Create(ctx context.Context, a *Admin) error
	GetByID(ctx context.Context, id uuid.UUID) (*Admin, error)
	GetByEmail(ctx context.Context, email string) (*Admin, error)
}
