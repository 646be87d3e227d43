// Package slug normalizes free-text restaurant names into URL-safe tenant
// slugs and validates candidates against the reserved namespace.
package slug

import (
	"errors"
	"strings"
)

const (
	MinLength = 3
	MaxLength = 63
)

// Validation errors name the specific rule violated so the API can return
// an actionable message.
var (
	ErrTooShort = errors.New("slug: too short")
	ErrTooLong  = errors.New("slug: too long")
	ErrCharset  = errors.New("slug: must be lowercase alphanumeric with hyphens")
	ErrReserved = errors.New("slug: reserved")
)

// reserved is the fixed denylist of namespace-colliding slugs, checked
// case-insensitively after normalization.
var reserved = map[string]struct{}{
	"admin":     {},
	"api":       {},
	"auth":      {},
	"www":       {},
	"app":       {},
	"dashboard": {},
	"internal":  {},
	"system":    {},
	"platewise": {},
	"support":   {},
	"billing":   {},
	"status":    {},
}

// Sanitize normalizes free text into slug form: lowercase, alphanumeric and
// hyphens only, repeated hyphens collapsed, leading/trailing hyphens
// trimmed, capped at MaxLength. Pure and idempotent:
// Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))
	prevHyphen := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		case r == '-' || r == ' ' || r == '_' || r == '.':
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		default:
			// Drop everything else (punctuation, unicode).
		}
	}

	out := strings.TrimRight(b.String(), "-")
	if len(out) > MaxLength {
		out = strings.TrimRight(out[:MaxLength], "-")
	}
	return out
}

// Validate checks an already-normalized slug. It does not sanitize; callers
// that accept free text should Sanitize first.
func Validate(s string) error {
	if len(s) < MinLength {
		return ErrTooShort
	}
	if len(s) > MaxLength {
		return ErrTooLong
	}
	if s != Sanitize(s) || strings.HasPrefix(s, "-") {
		return ErrCharset
	}
	if _, ok := reserved[s]; ok {
		return ErrReserved
	}
	return nil
}

// Normalize sanitizes and validates in one step, returning the normalized
// slug on success.
func Normalize(s string) (string, error) {
	n := Sanitize(s)
	if err := Validate(n); err != nil {
		return "", err
	}
	return n, nil
}
