package domain

import "errors"

// Sentinel errors for the domain layer. Storage implementations translate
// driver-level failures (constraint violations, missing rows) into these so
// callers never inspect driver error text.
var (
	ErrNotFound         = errors.New("domain: not found")
	ErrConflict         = errors.New("domain: conflict")
	ErrDuplicateSlug    = errors.New("domain: slug already taken")
	ErrEmailUnavailable = errors.New("domain: owner email already bound")
	ErrDuplicateRequest = errors.New("domain: provisioning already in flight for this idempotency key")
	ErrLinkUsed         = errors.New("domain: setup link already used")
	ErrLinkExpired      = errors.New("domain: setup link expired")
)
