package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/platewise/platewise/internal/domain"
)

const pgErrUniqueViolation = "23505"

// Constraint names from migrations/001_init.sql. Classification is by
// constraint identifier, never by message text, so a driver message change
// cannot misroute an error.
const (
	constraintTenantSlug     = "tenants_slug_key"
	constraintTenantOwner    = "tenants_owner_email_key"
	constraintIdempotencyKey = "provisioning_attempts_idempotency_key_key"
	constraintAdminEmail     = "administrators_email_key"
	constraintLinkToken      = "setup_links_token_key"
)

// classifyUnique maps a unique-constraint violation to its domain sentinel.
// Returns the original error unchanged when it is not a unique violation or
// the constraint is not one we enforce deliberately.
func classifyUnique(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgErrUniqueViolation {
		return err
	}

	switch pgErr.ConstraintName {
	case constraintTenantSlug:
		return domain.ErrDuplicateSlug
	case constraintTenantOwner:
		return domain.ErrEmailUnavailable
	case constraintIdempotencyKey:
		return domain.ErrDuplicateRequest
	case constraintAdminEmail, constraintLinkToken:
		return domain.ErrConflict
	default:
		return err
	}
}
