// Package provision implements the tenant provisioning workflow: one atomic
// database transaction (ledger row + tenant row), then an out-of-band
// identity creation step, with the persisted ledger driving retries.
package provision

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/platewise/platewise/internal/domain"
	"github.com/platewise/platewise/internal/identity"
	"github.com/platewise/platewise/internal/ids"
	"github.com/platewise/platewise/internal/obs"
	"github.com/platewise/platewise/internal/slug"
)

// Sentinel errors for the provision package.
var (
	ErrOwnerEmailRequired = errors.New("provision: owner email is required")

	// ErrIdentityStep means the tenant row is committed but the owner
	// principal could not be created. The ledger entry stays pending; the
	// caller retries with the same idempotency key and only this step
	// re-runs.
	ErrIdentityStep = errors.New("provision: identity creation failed")

	// ErrAttemptFailed means the idempotency key belongs to a terminally
	// failed attempt. The caller must submit with a fresh key.
	ErrAttemptFailed = errors.New("provision: previous attempt for this key failed")
)

// Alerter receives operational alerts for states that need a human eye.
// *notify.SlackAlerter satisfies it.
type Alerter interface {
	ProvisioningStalled(ctx context.Context, tenantSlug, ownerEmail, reason string)
}

// Request carries the admin-submitted tenant facts.
type Request struct {
	Name           string
	Slug           string // optional; falls back to Name
	Timezone       string
	Currency       string
	Email          string
	Phone          string
	Website        string
	Address        string
	OwnerEmail     string
	OwnerName      string
	IdempotencyKey string // optional; generated when empty
}

// Result is the provisioning outcome. Password is the owner's one-time
// credential and is only non-empty on the call that actually created the
// principal; it is never persisted, so replays cannot return it.
type Result struct {
	TenantID       uuid.UUID
	Slug           string
	OwnerEmail     string
	Password       string
	IdempotencyKey string
	Replayed       bool
}

// Service drives the provisioning state machine.
type Service struct {
	tenants domain.TenantRepository
	ledger  domain.ProvisioningRepository
	idp     identity.Provider
	alerter Alerter
	log     zerolog.Logger
}

func NewService(tenants domain.TenantRepository, ledger domain.ProvisioningRepository, idp identity.Provider, alerter Alerter, log zerolog.Logger) *Service {
	return &Service{
		tenants: tenants,
		ledger:  ledger,
		idp:     idp,
		alerter: alerter,
		log:     log,
	}
}

// Provision runs the full workflow. Re-invoking with the same idempotency
// key is always safe: a completed attempt replays its original result, a
// pending attempt with a committed tenant resumes at the identity step, and
// an in-flight attempt is rejected as a duplicate request.
func (s *Service) Provision(ctx context.Context, req Request) (*Result, error) {
	candidate := req.Slug
	if strings.TrimSpace(candidate) == "" {
		candidate = req.Name
	}
	normalized, err := slug.Normalize(candidate)
	if err != nil {
		return nil, fmt.Errorf("provision.Provision: %w", err)
	}

	ownerEmail := strings.ToLower(strings.TrimSpace(req.OwnerEmail))
	if ownerEmail == "" {
		return nil, fmt.Errorf("provision.Provision: %w", ErrOwnerEmailRequired)
	}

	key := req.IdempotencyKey
	if key == "" {
		key = ids.NewIdempotencyKey()
	}

	// Entry guard: the ledger decides whether this key is fresh, a replay,
	// a resume, or a concurrent duplicate.
	attempt, err := s.ledger.GetByKey(ctx, key)
	switch {
	case err == nil:
		return s.resumeOrReplay(ctx, attempt, req)
	case errors.Is(err, domain.ErrNotFound):
		// Fresh key, proceed.
	default:
		return nil, fmt.Errorf("provision.Provision: ledger lookup: %w", err)
	}

	// Cheap pre-flight. The transaction re-checks under unique constraints;
	// this exists only to fail fast with a precise reason.
	err = s.checkOwnerEmailAvailable(ctx, ownerEmail)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	tenant := &domain.Tenant{
		ID:         uuid.New(),
		Name:       strings.TrimSpace(req.Name),
		Slug:       normalized,
		Status:     domain.TenantPending,
		Timezone:   defaultStr(req.Timezone, "UTC"),
		Currency:   defaultStr(req.Currency, "USD"),
		Email:      strings.TrimSpace(req.Email),
		Phone:      strings.TrimSpace(req.Phone),
		Website:    strings.TrimSpace(req.Website),
		Address:    strings.TrimSpace(req.Address),
		OwnerEmail: ownerEmail,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	attempt = &domain.ProvisioningAttempt{
		ID:             uuid.New(),
		IdempotencyKey: key,
		Slug:           normalized,
		OwnerEmail:     ownerEmail,
		Status:         domain.AttemptPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.ledger.Begin(ctx, attempt, tenant)
	if err != nil {
		obs.ProvisionOutcome("rejected")
		return nil, fmt.Errorf("provision.Provision: %w", err)
	}

	s.log.Info().
		Str("tenant_id", tenant.ID.String()).
		Str("slug", normalized).
		Str("idempotency_key", key).
		Msg("provisioning transaction committed")

	return s.createOwnerIdentity(ctx, attempt, req.OwnerName, false)
}

// resumeOrReplay handles a key the ledger already knows.
func (s *Service) resumeOrReplay(ctx context.Context, attempt *domain.ProvisioningAttempt, req Request) (*Result, error) {
	switch attempt.Status {
	case domain.AttemptCompleted:
		obs.ProvisionOutcome("replayed")
		s.log.Info().
			Str("idempotency_key", attempt.IdempotencyKey).
			Str("tenant_id", attempt.TenantID.String()).
			Msg("idempotent replay of completed provisioning")
		return &Result{
			TenantID:       *attempt.TenantID,
			Slug:           attempt.Slug,
			OwnerEmail:     attempt.OwnerEmail,
			IdempotencyKey: attempt.IdempotencyKey,
			Replayed:       true,
		}, nil

	case domain.AttemptPending:
		if attempt.TenantID == nil {
			// Another caller holds this key and its transaction has not
			// surfaced a tenant yet: reject, do not silently retry.
			return nil, fmt.Errorf("provision.resumeOrReplay: %w", domain.ErrDuplicateRequest)
		}
		s.log.Info().
			Str("idempotency_key", attempt.IdempotencyKey).
			Str("tenant_id", attempt.TenantID.String()).
			Msg("resuming provisioning at identity step")
		return s.createOwnerIdentity(ctx, attempt, req.OwnerName, true)

	default:
		return nil, fmt.Errorf("provision.resumeOrReplay: %w", ErrAttemptFailed)
	}
}

// createOwnerIdentity is step two: the remote side effect. It must never
// roll back the committed tenant row; on failure the ledger stays pending
// and the same idempotency key retries exactly this step.
func (s *Service) createOwnerIdentity(ctx context.Context, attempt *domain.ProvisioningAttempt, ownerName string, resuming bool) (*Result, error) {
	password, err := generatePassword()
	if err != nil {
		return nil, fmt.Errorf("provision.createOwnerIdentity: %w", err)
	}

	meta := map[string]string{"tenant_slug": attempt.Slug}
	if ownerName != "" {
		meta["name"] = ownerName
	}

	ownerID, err := s.idp.CreateUser(ctx, attempt.OwnerEmail, password, meta)
	if errors.Is(err, identity.ErrEmailTaken) && resuming {
		// A prior run crashed between creating the principal and
		// back-filling the ledger. Adopt the existing principal instead of
		// failing; the temporary password from that run is gone, so the
		// result carries none and the owner recovers via a setup link.
		ownerID, err = s.adoptExistingPrincipal(ctx, attempt)
		password = ""
	}
	if err != nil {
		s.recordIdentityFailure(ctx, attempt, err)
		return nil, fmt.Errorf("provision.createOwnerIdentity: %w: %w", ErrIdentityStep, err)
	}

	// Back-fill: both updates are idempotent, so a crash between them is
	// repaired by the next retry reaching this same code path.
	err = s.tenants.SetOwner(ctx, *attempt.TenantID, ownerID)
	if err != nil {
		s.recordIdentityFailure(ctx, attempt, err)
		return nil, fmt.Errorf("provision.createOwnerIdentity: set owner: %w: %w", ErrIdentityStep, err)
	}

	err = s.ledger.Complete(ctx, attempt.ID, ownerID)
	if err != nil {
		s.recordIdentityFailure(ctx, attempt, err)
		return nil, fmt.Errorf("provision.createOwnerIdentity: complete ledger: %w: %w", ErrIdentityStep, err)
	}

	obs.ProvisionOutcome("completed")
	s.log.Info().
		Str("tenant_id", attempt.TenantID.String()).
		Str("owner_id", ownerID).
		Str("idempotency_key", attempt.IdempotencyKey).
		Msg("tenant provisioned")

	return &Result{
		TenantID:       *attempt.TenantID,
		Slug:           attempt.Slug,
		OwnerEmail:     attempt.OwnerEmail,
		Password:       password,
		IdempotencyKey: attempt.IdempotencyKey,
	}, nil
}

// adoptExistingPrincipal resolves the email-taken race on resume by looking
// up the principal a previous run already created.
func (s *Service) adoptExistingPrincipal(ctx context.Context, attempt *domain.ProvisioningAttempt) (string, error) {
	id, found, err := s.idp.GetUserByEmail(ctx, attempt.OwnerEmail)
	if err != nil {
		return "", fmt.Errorf("looking up existing principal: %w", err)
	}
	if !found {
		// Taken on create but absent on lookup: the email belongs to a
		// principal we cannot see. Surface the conflict.
		return "", fmt.Errorf("%w", domain.ErrEmailUnavailable)
	}
	s.log.Info().
		Str("owner_id", id).
		Str("idempotency_key", attempt.IdempotencyKey).
		Msg("adopted principal from interrupted provisioning run")
	return id, nil
}

func (s *Service) recordIdentityFailure(ctx context.Context, attempt *domain.ProvisioningAttempt, cause error) {
	obs.ProvisionOutcome("identity_failed")

	err := s.ledger.RecordError(ctx, attempt.ID, cause.Error())
	if err != nil {
		s.log.Error().Err(err).
			Str("idempotency_key", attempt.IdempotencyKey).
			Msg("failed to record identity-step error on ledger")
	}

	s.log.Error().Err(cause).
		Str("idempotency_key", attempt.IdempotencyKey).
		Str("slug", attempt.Slug).
		Msg("identity step failed; ledger left pending for retry")

	if s.alerter != nil {
		s.alerter.ProvisioningStalled(ctx, attempt.Slug, attempt.OwnerEmail, cause.Error())
	}
}

// checkOwnerEmailAvailable is the pre-flight check. A lookup failure aborts
// with a retryable error; it is never treated as "available".
func (s *Service) checkOwnerEmailAvailable(ctx context.Context, email string) error {
	_, found, err := s.idp.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("provision.checkOwnerEmailAvailable: %w", err)
	}
	if found {
		return fmt.Errorf("provision.checkOwnerEmailAvailable: %w", domain.ErrEmailUnavailable)
	}

	_, err = s.tenants.GetByOwnerEmail(ctx, email)
	switch {
	case err == nil:
		return fmt.Errorf("provision.checkOwnerEmailAvailable: %w", domain.ErrEmailUnavailable)
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("provision.checkOwnerEmailAvailable: %w", err)
	}
}

const passwordBytes = 18

// generatePassword returns a cryptographically random one-time password.
func generatePassword() (string, error) {
	buf := make([]byte, passwordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func defaultStr(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
