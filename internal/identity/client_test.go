package identity_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platewise/platewise/internal/identity"
)

// newProviderServer runs a fake identity provider with a token endpoint and
// a configurable admin handler.
func newProviderServer(t *testing.T, admin http.HandlerFunc) (*httptest.Server, *identity.Client) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"test-token","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/admin/users", admin)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := identity.NewClient(srv.URL, srv.URL+"/oauth/token", "svc", "secret", 5*time.Second)
	return srv, client
}

func TestCreateUser(t *testing.T) {
	t.Parallel()

	t.Run("happy path", func(t *testing.T) {
		t.Parallel()

		_, client := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "owner@demo-bistro.com", body["email"])
			assert.NotEmpty(t, body["password"])

			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"idp-user-1","email":"owner@demo-bistro.com"}`))
		})

		id, err := client.CreateUser(t.Context(), "owner@demo-bistro.com", "temp-pw-123456", map[string]string{"tenant_slug": "demo-bistro"})
		require.NoError(t, err)
		assert.Equal(t, "idp-user-1", id)
	})

	t.Run("email taken", func(t *testing.T) {
		t.Parallel()

		_, client := newProviderServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"msg":"A user with this email address has already been registered"}`))
		})

		_, err := client.CreateUser(t.Context(), "taken@example.com", "pw", nil)
		assert.ErrorIs(t, err, identity.ErrEmailTaken)
	})

	t.Run("server error is unavailable", func(t *testing.T) {
		t.Parallel()

		_, client := newProviderServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.CreateUser(t.Context(), "x@example.com", "pw", nil)
		assert.ErrorIs(t, err, identity.ErrUnavailable)
	})

	t.Run("missing id in response", func(t *testing.T) {
		t.Parallel()

		_, client := newProviderServer(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		})

		_, err := client.CreateUser(t.Context(), "x@example.com", "pw", nil)
		assert.Error(t, err)
	})
}

func TestGetUserByEmail(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		_, client := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "owner@demo-bistro.com", r.URL.Query().Get("email"))
			_, _ = w.Write([]byte(`{"users":[{"id":"idp-user-1","email":"Owner@Demo-Bistro.com"}]}`))
		})

		id, found, err := client.GetUserByEmail(t.Context(), "owner@demo-bistro.com")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "idp-user-1", id)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		_, client := newProviderServer(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"users":[]}`))
		})

		_, found, err := client.GetUserByEmail(t.Context(), "free@example.com")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("provider error is never treated as available", func(t *testing.T) {
		t.Parallel()

		_, client := newProviderServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, found, err := client.GetUserByEmail(t.Context(), "x@example.com")
		assert.ErrorIs(t, err, identity.ErrUnavailable)
		assert.False(t, found)
	})
}
