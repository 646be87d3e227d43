package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/platewise/platewise/internal/domain"
)

func TestClassifyUnique(t *testing.T) {
	t.Parallel()

	uniq := func(constraint string) error {
		return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
	}

	cases := []struct {
		name string
		in   error
		want error
	}{
		{"slug constraint", uniq("tenants_slug_key"), domain.ErrDuplicateSlug},
		{"owner email constraint", uniq("tenants_owner_email_key"), domain.ErrEmailUnavailable},
		{"idempotency key constraint", uniq("provisioning_attempts_idempotency_key_key"), domain.ErrDuplicateRequest},
		{"admin email constraint", uniq("administrators_email_key"), domain.ErrConflict},
		{"link token constraint", uniq("setup_links_token_key"), domain.ErrConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, classifyUnique(tc.in), tc.want)
		})
	}

	t.Run("unknown constraint passes through", func(t *testing.T) {
		t.Parallel()

		in := uniq("some_other_key")
		assert.Equal(t, in, classifyUnique(in))
	})

	t.Run("non-unique pg error passes through", func(t *testing.T) {
		t.Parallel()

		in := &pgconn.PgError{Code: "23503", ConstraintName: "tenants_slug_key"}
		assert.Equal(t, error(in), classifyUnique(in))
	})

	t.Run("plain error passes through", func(t *testing.T) {
		t.Parallel()

		in := errors.New("connection refused")
		assert.Equal(t, in, classifyUnique(in))
	})

	t.Run("wrapped pg error still classified", func(t *testing.T) {
		t.Parallel()

		wrapped := errors.Join(errors.New("exec"), uniq("tenants_slug_key"))
		assert.ErrorIs(t, classifyUnique(wrapped), domain.ErrDuplicateSlug)
	})
}
