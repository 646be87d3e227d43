package slug_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platewise/platewise/internal/slug"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"already clean", "demo-bistro", "demo-bistro"},
		{"free text with punctuation", "Demo Bistro!!", "demo-bistro"},
		{"uppercase", "ACME", "acme"},
		{"underscores and dots", "la_piazza.v2", "la-piazza-v2"},
		{"collapsed hyphens", "a---b", "a-b"},
		{"leading and trailing junk", "  --tapas bar--  ", "tapas-bar"},
		{"unicode stripped", "café münchen", "caf-mnchen"},
		{"empty", "", ""},
		{"only junk", "!!!", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, slug.Sanitize(tc.in))
		})
	}

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()

		inputs := []string{
			"Demo Bistro!!", "a---b", "  Trattoria  Roma  ", "x", "",
			"ALL CAPS PLACE", "mixed_Case-Slug.name", strings.Repeat("long-", 40),
		}
		for _, in := range inputs {
			once := slug.Sanitize(in)
			assert.Equal(t, once, slug.Sanitize(once), "input %q", in)
		}
	})

	t.Run("length capped without trailing hyphen", func(t *testing.T) {
		t.Parallel()

		got := slug.Sanitize(strings.Repeat("ab-", 60))
		assert.LessOrEqual(t, len(got), slug.MaxLength)
		assert.False(t, strings.HasSuffix(got, "-"))
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, slug.Validate("demo-bistro"))
	})

	t.Run("too short", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, slug.Validate("ab"), slug.ErrTooShort)
	})

	t.Run("too long", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, slug.Validate(strings.Repeat("a", 64)), slug.ErrTooLong)
	})

	t.Run("bad charset", func(t *testing.T) {
		t.Parallel()
		assert.ErrorIs(t, slug.Validate("Demo-Bistro"), slug.ErrCharset)
		assert.ErrorIs(t, slug.Validate("demo bistro"), slug.ErrCharset)
		assert.ErrorIs(t, slug.Validate("demo--bistro"), slug.ErrCharset)
	})

	t.Run("reserved rejected regardless of case or whitespace", func(t *testing.T) {
		t.Parallel()

		for _, raw := range []string{"admin", "ADMIN", " Admin ", "api", "Auth", "billing"} {
			n := slug.Sanitize(raw)
			assert.ErrorIs(t, slug.Validate(n), slug.ErrReserved, "input %q", raw)
		}
	})
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	t.Run("happy path", func(t *testing.T) {
		t.Parallel()

		got, err := slug.Normalize("Demo Bistro!!")
		require.NoError(t, err)
		assert.Equal(t, "demo-bistro", got)
	})

	t.Run("reserved after normalization", func(t *testing.T) {
		t.Parallel()

		_, err := slug.Normalize("  API  ")
		assert.ErrorIs(t, err, slug.ErrReserved)
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		_, err := slug.Normalize("!!!")
		assert.ErrorIs(t, err, slug.ErrTooShort)
	})
}
