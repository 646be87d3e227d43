// Package identity talks to the external identity provider's admin API.
// Owner principals live there, not in our database; everything here is a
// remote side effect with its own commit semantics, which is why the
// provisioning flow needs a persisted ledger instead of one transaction.
package identity

import (
	"context"
	"errors"
)

// Sentinel errors for the identity package.
var (
	// ErrEmailTaken means the provider already has a principal for the
	// email. During a provisioning resume this is expected and recoverable.
	ErrEmailTaken = errors.New("identity: email already registered")

	// ErrUnavailable means the provider could not be reached or answered
	// with a server error. Callers must treat lookups that fail this way as
	// "cannot determine", never as "available".
	ErrUnavailable = errors.New("identity: provider unavailable")
)

// Provider is the subset of the identity provider admin API the service
// uses. *Client satisfies it; tests substitute fakes.
type Provider interface {
	// CreateUser creates a principal with a temporary password and returns
	// the provider-side user id.
	CreateUser(ctx context.Context, email, password string, metadata map[string]string) (string, error)

	// GetUserByEmail looks up a principal. found=false with nil error means
	// the email is genuinely unbound.
	GetUserByEmail(ctx context.Context, email string) (id string, found bool, err error)
}
