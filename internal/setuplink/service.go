// Package setuplink issues and consumes single-use, time-bounded
// password-setup links for tenant owners.
package setuplink

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/platewise/platewise/internal/config"
	"github.com/platewise/platewise/internal/domain"
	"github.com/platewise/platewise/internal/notify"
	"github.com/platewise/platewise/internal/obs"
	redisstore "github.com/platewise/platewise/internal/store/redis"
)

// ErrNoOwnerEmail means the tenant has no stored owner email to deliver a
// link to. Nothing is written in this case.
var ErrNoOwnerEmail = errors.New("setuplink: tenant has no owner email")

// RateLimiter is the sliding-window counter. *redisstore.Limiter satisfies
// it. Allow returns the recorded event's member so a request denied by the
// other window can Forget it instead of burning quota.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (count int, ok bool, member string, err error)
	Forget(ctx context.Context, key, member string) error
}

// RateLimitInfo reports current window usage so callers can display
// remaining quota.
type RateLimitInfo struct {
	TenantCount int `json:"tenantCount"`
	TenantLimit int `json:"tenantLimit"`
	AdminCount  int `json:"adminCount"`
	AdminLimit  int `json:"adminLimit"`
}

// RateLimitError is returned when either issuance window is exhausted.
type RateLimitError struct {
	Info RateLimitInfo
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("setuplink: rate limited (tenant %d/%d, admin %d/%d)",
		e.Info.TenantCount, e.Info.TenantLimit, e.Info.AdminCount, e.Info.AdminLimit)
}

// IssueOptions are the optional knobs on link issuance.
type IssueOptions struct {
	SendEmail        bool
	LoginRedirectURL string
}

// IssueResult is a freshly issued link.
type IssueResult struct {
	TenantID   uuid.UUID
	OwnerEmail string
	Mode       string // "invite" before the owner principal exists, else "recovery"
	Link       string
	Token      string
	ExpiresAt  time.Time
	EmailSent  bool
	RateLimit  RateLimitInfo
}

// ValidationResult reports the state of a token. Used is checked before
// Expired: a consumed token reports used even when it has not yet expired.
type ValidationResult struct {
	Valid     bool
	Used      bool
	Expired   bool
	Tenant    *domain.Tenant
	ExpiresAt time.Time
}

// Service implements both setup-link operations.
type Service struct {
	tenants domain.TenantRepository
	links   domain.SetupLinkRepository
	limiter RateLimiter
	email   notify.EmailSender
	cfg     config.LinksConfig
	log     zerolog.Logger
}

func NewService(tenants domain.TenantRepository, links domain.SetupLinkRepository, limiter RateLimiter, email notify.EmailSender, cfg config.LinksConfig, log zerolog.Logger) *Service {
	return &Service{
		tenants: tenants,
		links:   links,
		limiter: limiter,
		email:   email,
		cfg:     cfg,
		log:     log,
	}
}

// Issue creates a link for the tenant's owner email. Issuance is bounded by
// two independent sliding windows, per tenant and per issuing admin; the
// limiter errors out rather than allowing unbounded issuance when Redis is
// unreachable.
func (s *Service) Issue(ctx context.Context, tenantID, adminID uuid.UUID, opts IssueOptions) (*IssueResult, error) {
	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("setuplink.Issue: %w", err)
	}

	if tenant.OwnerEmail == "" {
		return nil, fmt.Errorf("setuplink.Issue: %w", ErrNoOwnerEmail)
	}

	info := RateLimitInfo{
		TenantLimit: s.cfg.PerTenantLimit,
		AdminLimit:  s.cfg.PerAdminLimit,
	}

	tenantCount, tenantOK, tenantEvt, err := s.limiter.Allow(ctx, redisstore.TenantIssueKey(tenantID), s.cfg.PerTenantLimit, s.cfg.PerTenantWindow)
	if err != nil {
		return nil, fmt.Errorf("setuplink.Issue: tenant window: %w", err)
	}
	info.TenantCount = tenantCount

	adminCount, adminOK, adminEvt, err := s.limiter.Allow(ctx, redisstore.AdminIssueKey(adminID), s.cfg.PerAdminLimit, s.cfg.PerAdminWindow)
	if err != nil {
		return nil, fmt.Errorf("setuplink.Issue: admin window: %w", err)
	}
	info.AdminCount = adminCount

	if !tenantOK || !adminOK {
		// A denied issuance must not burn quota in the window that admitted
		// it; the denying window already unwound its own event.
		if tenantOK {
			if ferr := s.limiter.Forget(ctx, redisstore.TenantIssueKey(tenantID), tenantEvt); ferr != nil {
				s.log.Warn().Err(ferr).Str("tenant_id", tenantID.String()).Msg("rate limit unwind failed")
			}
		}
		if adminOK {
			if ferr := s.limiter.Forget(ctx, redisstore.AdminIssueKey(adminID), adminEvt); ferr != nil {
				s.log.Warn().Err(ferr).Str("admin_id", adminID.String()).Msg("rate limit unwind failed")
			}
		}
		obs.LinkRejected("rate_limited")
		return nil, &RateLimitError{Info: info}
	}

	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("setuplink.Issue: %w", err)
	}

	now := time.Now()
	link := &domain.SetupLink{
		Token:     token,
		TenantID:  tenantID,
		Email:     tenant.OwnerEmail,
		ExpiresAt: now.Add(s.cfg.TTL),
		CreatedBy: adminID,
		CreatedAt: now,
	}

	err = s.links.Create(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("setuplink.Issue: %w", err)
	}

	mode := "recovery"
	if tenant.OwnerID == nil {
		mode = "invite"
	}

	res := &IssueResult{
		TenantID:   tenantID,
		OwnerEmail: tenant.OwnerEmail,
		Mode:       mode,
		Link:       s.buildURL(token, opts.LoginRedirectURL),
		Token:      token,
		ExpiresAt:  link.ExpiresAt,
		RateLimit:  info,
	}

	obs.LinkIssued()
	s.log.Info().
		Str("tenant_id", tenantID.String()).
		Str("admin_id", adminID.String()).
		Str("mode", mode).
		Msg("setup link issued")

	if opts.SendEmail {
		res.EmailSent = s.sendLinkEmail(ctx, tenant, res)
	}

	return res, nil
}

// Validate checks a token and, in consume mode, atomically marks it used.
// Check order is fixed: unknown, then used, then expired. ErrNotFound is the
// only error condition expressed as an error; used/expired come back as
// result flags.
func (s *Service) Validate(ctx context.Context, token string, consume bool) (*ValidationResult, error) {
	link, err := s.links.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			obs.LinkRejected("not_found")
		}
		return nil, fmt.Errorf("setuplink.Validate: %w", err)
	}

	if link.Used {
		obs.LinkRejected("used")
		return &ValidationResult{Used: true, ExpiresAt: link.ExpiresAt}, nil
	}

	now := time.Now()
	if now.After(link.ExpiresAt) {
		obs.LinkRejected("expired")
		return &ValidationResult{Expired: true, ExpiresAt: link.ExpiresAt}, nil
	}

	if consume {
		won, consumeErr := s.links.Consume(ctx, token, now)
		if consumeErr != nil {
			return nil, fmt.Errorf("setuplink.Validate: %w", consumeErr)
		}
		if !won {
			// Lost a concurrent consume race: exactly one caller wins.
			obs.LinkRejected("used")
			return &ValidationResult{Used: true, ExpiresAt: link.ExpiresAt}, nil
		}
		obs.LinkConsumed()
	}

	tenant, err := s.tenants.GetByID(ctx, link.TenantID)
	if err != nil {
		return nil, fmt.Errorf("setuplink.Validate: tenant lookup: %w", err)
	}

	return &ValidationResult{Valid: true, Tenant: tenant, ExpiresAt: link.ExpiresAt}, nil
}

func (s *Service) buildURL(token, redirect string) string {
	q := url.Values{"token": {token}}
	if redirect != "" {
		q.Set("redirect_to", redirect)
	}
	return s.cfg.BaseURL + "?" + q.Encode()
}

func (s *Service) sendLinkEmail(ctx context.Context, tenant *domain.Tenant, res *IssueResult) bool {
	subject := fmt.Sprintf("Set up your %s account", tenant.Name)
	body := fmt.Sprintf(
		"Hello,\n\nUse the link below to set your password for %s. The link expires at %s and can be used once.\n\n%s\n",
		tenant.Name, res.ExpiresAt.Format(time.RFC1123), res.Link,
	)

	err := s.email.Send(ctx, res.OwnerEmail, subject, body)
	if err != nil {
		s.log.Warn().Err(err).
			Str("tenant_id", tenant.ID.String()).
			Msg("setup link email delivery failed")
		return false
	}
	return true
}

const tokenBytes = 32

// generateToken returns a cryptographically unguessable opaque token.
func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
