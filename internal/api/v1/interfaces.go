package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/platewise/platewise/internal/domain"
	"github.com/platewise/platewise/internal/provision"
	"github.com/platewise/platewise/internal/setuplink"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Tenants() domain.TenantRepository
	Provisioning() domain.ProvisioningRepository
	SetupLinks() domain.SetupLinkRepository
	Admins() domain.AdminRepository
}

// Provisioner abstracts the provisioning state machine for handler testing.
// *provision.Service satisfies this interface.
type Provisioner interface {
	Provision(ctx context.Context, req provision.Request) (*provision.Result, error)
}

// LinkService abstracts setup-link issuance and validation for handler
// testing. *setuplink.Service satisfies this interface.
type LinkService interface {
	Issue(ctx context.Context, tenantID, adminID uuid.UUID, opts setuplink.IssueOptions) (*setuplink.IssueResult, error)
	Validate(ctx context.Context, token string, consume bool) (*setuplink.ValidationResult, error)
}

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, err error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}
