package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SetupLink is a single-use, time-bounded credential-bootstrap token.
// used=true is terminal: a consumed link never validates again, expired or
// not.
type SetupLink struct {
	Token     string
	TenantID  uuid.UUID
	Email     string
	ExpiresAt time.Time
	Used      bool
	UsedAt    *time.Time
	CreatedBy uuid.UUID // issuing admin
	CreatedAt time.Time
}

type SetupLinkRepository interface {
	Create(ctx context.Context, link *SetupLink) error
	GetByToken(ctx context.Context, token string) (*SetupLink, error)
	// Consume atomically flips used=false to used=true. Returns false when
	// the token was already consumed, so concurrent consume attempts have
	// exactly one winner.
	Consume(ctx context.Context, token string, at time.Time) (bool, error)
}
