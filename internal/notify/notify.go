// Package notify delivers operational alerts and owner-facing email. All
// delivery is best-effort: a send failure is logged and never fails the
// operation that triggered it.
package notify

import "context"

// EmailSender delivers transactional email through the external provider.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NopEmailSender is used when no delivery provider is configured.
type NopEmailSender struct{}

func (NopEmailSender) Send(_ context.Context, _, _, _ string) error { return nil }
