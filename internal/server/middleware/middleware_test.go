package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platewise/platewise/internal/auth"
	"github.com/platewise/platewise/internal/domain"
	"github.com/platewise/platewise/internal/server/middleware"
)

const testSecret = "middleware-test-secret"

// ---------------------------------------------------------------------------
// Mock AdminRepository
// ---------------------------------------------------------------------------

type mockAdminRepo struct {
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Admin, error)
}

func (m *mockAdminRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Admin, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockAdminRepo) Create(_ context.Context, _ *domain.Admin) error { panic("not implemented") }
func (m *mockAdminRepo) GetByEmail(_ context.Context, _ string) (*domain.Admin, error) {
	panic("not implemented")
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// contextHandler captures context values set by middleware so tests can
// assert that the correct admin and role were injected.
type contextHandler struct {
	adminID uuid.UUID
	role    string
	called  bool
}

func (h *contextHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.adminID, _ = middleware.AdminIDFromContext(r.Context())
	h.role, _ = middleware.RoleFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

func bearerRequest(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/tenants", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

// ---------------------------------------------------------------------------
// Auth tests
// ---------------------------------------------------------------------------

func TestAuth(t *testing.T) {
	t.Parallel()

	adminID := uuid.New()

	repoWith := func(admin *domain.Admin, err error) *mockAdminRepo {
		return &mockAdminRepo{
			getByIDFunc: func(_ context.Context, _ uuid.UUID) (*domain.Admin, error) {
				return admin, err
			},
		}
	}

	t.Run("valid access token injects admin and role", func(t *testing.T) {
		t.Parallel()

		token, err := auth.IssueAccessToken(testSecret, adminID, domain.RoleSupport, 5*time.Minute)
		require.NoError(t, err)

		admin := &domain.Admin{ID: adminID, Role: domain.RoleSuperadmin}
		h := &contextHandler{}
		mw := middleware.Auth(testSecret, repoWith(admin, nil))

		rec := httptest.NewRecorder()
		mw(h).ServeHTTP(rec, bearerRequest(token))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, h.called)
		assert.Equal(t, adminID, h.adminID)
		assert.Equal(t, domain.RoleSuperadmin, h.role, "role comes from the repo, not the token")
	})

	t.Run("missing token returns 401", func(t *testing.T) {
		t.Parallel()

		h := &contextHandler{}
		mw := middleware.Auth(testSecret, repoWith(nil, domain.ErrNotFound))

		rec := httptest.NewRecorder()
		mw(h).ServeHTTP(rec, bearerRequest(""))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, h.called)
		assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
	})

	t.Run("garbage token returns 401", func(t *testing.T) {
		t.Parallel()

		h := &contextHandler{}
		mw := middleware.Auth(testSecret, repoWith(nil, domain.ErrNotFound))

		rec := httptest.NewRecorder()
		mw(h).ServeHTTP(rec, bearerRequest("not-a-jwt"))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, h.called)
	})

	t.Run("refresh token rejected on API routes", func(t *testing.T) {
		t.Parallel()

		token, err := auth.IssueRefreshToken(testSecret, adminID, domain.RoleSupport, time.Hour)
		require.NoError(t, err)

		admin := &domain.Admin{ID: adminID, Role: domain.RoleSupport}
		h := &contextHandler{}
		mw := middleware.Auth(testSecret, repoWith(admin, nil))

		rec := httptest.NewRecorder()
		mw(h).ServeHTTP(rec, bearerRequest(token))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, h.called)
	})

	t.Run("token for deleted admin returns 401", func(t *testing.T) {
		t.Parallel()

		token, err := auth.IssueAccessToken(testSecret, adminID, domain.RoleSupport, 5*time.Minute)
		require.NoError(t, err)

		h := &contextHandler{}
		mw := middleware.Auth(testSecret, repoWith(nil, domain.ErrNotFound))

		rec := httptest.NewRecorder()
		mw(h).ServeHTTP(rec, bearerRequest(token))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, h.called)
	})

	t.Run("token signed with wrong secret returns 401", func(t *testing.T) {
		t.Parallel()

		token, err := auth.IssueAccessToken("other-secret", adminID, domain.RoleSupport, 5*time.Minute)
		require.NoError(t, err)

		h := &contextHandler{}
		mw := middleware.Auth(testSecret, repoWith(nil, domain.ErrNotFound))

		rec := httptest.NewRecorder()
		mw(h).ServeHTTP(rec, bearerRequest(token))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, h.called)
	})
}

// ---------------------------------------------------------------------------
// RequireRole tests
// ---------------------------------------------------------------------------

func TestRequireRole(t *testing.T) {
	t.Parallel()

	withRole := func(r *http.Request, role string) *http.Request {
		ctx := context.WithValue(r.Context(), middleware.ContextKeyAdminRole, role)
		return r.WithContext(ctx)
	}

	t.Run("allowed role passes through", func(t *testing.T) {
		t.Parallel()

		h := &contextHandler{}
		mw := middleware.RequireRole(domain.RoleSuperadmin, domain.RoleSupport)

		rec := httptest.NewRecorder()
		req := withRole(httptest.NewRequest(http.MethodGet, "/", nil), domain.RoleSupport)
		mw(h).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, h.called)
	})

	t.Run("disallowed role returns 403", func(t *testing.T) {
		t.Parallel()

		h := &contextHandler{}
		mw := middleware.RequireRole(domain.RoleSuperadmin)

		rec := httptest.NewRecorder()
		req := withRole(httptest.NewRequest(http.MethodGet, "/", nil), domain.RoleSupport)
		mw(h).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, h.called)
		assert.Contains(t, rec.Body.String(), "FORBIDDEN")
	})

	t.Run("missing role returns 401", func(t *testing.T) {
		t.Parallel()

		h := &contextHandler{}
		mw := middleware.RequireRole(domain.RoleSuperadmin)

		rec := httptest.NewRecorder()
		mw(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, h.called)
	})
}

// ---------------------------------------------------------------------------
// RateLimitByIP tests
// ---------------------------------------------------------------------------

func TestRateLimitByIP(t *testing.T) {
	t.Parallel()

	t.Run("burst exhausts then 429", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		mw := middleware.RateLimitByIP(ctx, 0.001, 2)
		h := &contextHandler{}
		wrapped := mw(h)

		req := httptest.NewRequest(http.MethodPost, "/setup-links/validate", nil)
		req.RemoteAddr = "203.0.113.9:4411"

		for range 2 {
			rec := httptest.NewRecorder()
			wrapped.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
		}

		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
	})

	t.Run("limits are per IP", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		mw := middleware.RateLimitByIP(ctx, 0.001, 1)
		wrapped := mw(&contextHandler{})

		first := httptest.NewRequest(http.MethodPost, "/setup-links/validate", nil)
		first.RemoteAddr = "198.51.100.1:1000"
		second := httptest.NewRequest(http.MethodPost, "/setup-links/validate", nil)
		second.RemoteAddr = "198.51.100.2:1000"

		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, first)
		assert.Equal(t, http.StatusOK, rec.Code)

		// Second IP has its own bucket.
		rec = httptest.NewRecorder()
		wrapped.ServeHTTP(rec, second)
		assert.Equal(t, http.StatusOK, rec.Code)

		// First IP is now exhausted.
		rec = httptest.NewRecorder()
		wrapped.ServeHTTP(rec, first)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})
}
