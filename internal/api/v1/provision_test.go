package v1_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/platewise/platewise/internal/api/v1"
	"github.com/platewise/platewise/internal/domain"
	"github.com/platewise/platewise/internal/provision"
	"github.com/platewise/platewise/internal/slug"
)

func provisionBody() map[string]any {
	return map[string]any{
		"name":       "Demo Bistro",
		"ownerEmail": "owner@demo-bistro.com",
	}
}

func TestProvisionTenant(t *testing.T) {
	t.Parallel()

	t.Run("happy_path_superadmin", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockProvisioner{
			provisionFunc: func(_ context.Context, req provision.Request) (*provision.Result, error) {
				assert.Equal(t, "Demo Bistro", req.Name)
				assert.Equal(t, "owner@demo-bistro.com", req.OwnerEmail)
				return &provision.Result{
					TenantID:       fixedTenantID(),
					Slug:           "demo-bistro",
					OwnerEmail:     req.OwnerEmail,
					Password:       "one-time-secret",
					IdempotencyKey: "01JMKEY",
				}, nil
			},
		}

		v1.RegisterProvisionRoutes(api, svc)

		resp := api.PostCtx(superadminCtx(), "/provision", provisionBody())

		require.Equal(t, http.StatusOK, resp.Code)

		env := decodeEnvelope(t, resp.Body)
		assert.True(t, env.Success)

		var data v1.ProvisionData
		decodeData(t, env, &data)
		assert.Equal(t, fixedTenantID(), data.TenantID)
		assert.Equal(t, "demo-bistro", data.Slug)
		assert.Equal(t, "owner@demo-bistro.com", data.OwnerCredentials.Email)
		assert.Equal(t, "one-time-secret", data.OwnerCredentials.Password)
		assert.True(t, data.OwnerCredentials.TemporaryPassword)
		assert.Equal(t, "01JMKEY", data.IdempotencyKey)
		assert.False(t, data.Replayed)
	})

	t.Run("replay_carries_no_password", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockProvisioner{
			provisionFunc: func(_ context.Context, _ provision.Request) (*provision.Result, error) {
				return &provision.Result{
					TenantID:       fixedTenantID(),
					Slug:           "demo-bistro",
					OwnerEmail:     "owner@demo-bistro.com",
					IdempotencyKey: "01JMKEY",
					Replayed:       true,
				}, nil
			},
		}

		v1.RegisterProvisionRoutes(api, svc)

		resp := api.PostCtx(superadminCtx(), "/provision", provisionBody())

		require.Equal(t, http.StatusOK, resp.Code)

		env := decodeEnvelope(t, resp.Body)
		var data v1.ProvisionData
		decodeData(t, env, &data)
		assert.True(t, data.Replayed)
		assert.Equal(t, "owner@demo-bistro.com", data.OwnerCredentials.Email)
		assert.Empty(t, data.OwnerCredentials.Password)
		assert.False(t, data.OwnerCredentials.TemporaryPassword, "no one-time credential on replay")
	})

	t.Run("support_role_forbidden", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockProvisioner{
			provisionFunc: func(_ context.Context, _ provision.Request) (*provision.Result, error) {
				t.Fatal("service must not be called")
				return nil, nil
			},
		}

		v1.RegisterProvisionRoutes(api, svc)

		resp := api.PostCtx(supportCtx(), "/provision", provisionBody())

		assert.Equal(t, http.StatusForbidden, resp.Code)
		env := decodeEnvelope(t, resp.Body)
		assert.False(t, env.Success)
		assert.Equal(t, v1.CodeForbidden, env.Error.Code)
	})

	t.Run("missing_role_forbidden", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockProvisioner{}

		v1.RegisterProvisionRoutes(api, svc)

		resp := api.PostCtx(context.Background(), "/provision", provisionBody())

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("error_mapping", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name       string
			err        error
			wantStatus int
			wantCode   string
		}{
			{
				name:       "reserved slug",
				err:        fmt.Errorf("provision.Provision: %w", slug.ErrReserved),
				wantStatus: http.StatusBadRequest,
				wantCode:   v1.CodeInvalidSlug,
			},
			{
				name:       "short slug",
				err:        fmt.Errorf("provision.Provision: %w", slug.ErrTooShort),
				wantStatus: http.StatusBadRequest,
				wantCode:   v1.CodeInvalidSlug,
			},
			{
				name:       "owner email required",
				err:        fmt.Errorf("provision.Provision: %w", provision.ErrOwnerEmailRequired),
				wantStatus: http.StatusBadRequest,
				wantCode:   v1.CodeOwnerEmailRequired,
			},
			{
				name:       "email unavailable",
				err:        fmt.Errorf("x: %w", domain.ErrEmailUnavailable),
				wantStatus: http.StatusConflict,
				wantCode:   v1.CodeEmailUnavailable,
			},
			{
				name:       "duplicate slug",
				err:        fmt.Errorf("x: %w", domain.ErrDuplicateSlug),
				wantStatus: http.StatusConflict,
				wantCode:   v1.CodeDuplicateSlug,
			},
			{
				name:       "in-flight duplicate request",
				err:        fmt.Errorf("x: %w", domain.ErrDuplicateRequest),
				wantStatus: http.StatusConflict,
				wantCode:   v1.CodeDuplicateRequest,
			},
			{
				name:       "failed attempt needs fresh key",
				err:        fmt.Errorf("x: %w", provision.ErrAttemptFailed),
				wantStatus: http.StatusConflict,
				wantCode:   v1.CodeDuplicateRequest,
			},
			{
				name:       "identity step failure",
				err:        fmt.Errorf("x: %w", provision.ErrIdentityStep),
				wantStatus: http.StatusInternalServerError,
				wantCode:   v1.CodeAuthUserCreationFailed,
			},
			{
				name:       "unknown failure",
				err:        fmt.Errorf("pg: connection refused"),
				wantStatus: http.StatusInternalServerError,
				wantCode:   v1.CodeProvisioningFailed,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				_, api := humatest.New(t)
				svc := &mockProvisioner{
					provisionFunc: func(_ context.Context, _ provision.Request) (*provision.Result, error) {
						return nil, tt.err
					},
				}

				v1.RegisterProvisionRoutes(api, svc)

				resp := api.PostCtx(superadminCtx(), "/provision", provisionBody())

				assert.Equal(t, tt.wantStatus, resp.Code)
				env := decodeEnvelope(t, resp.Body)
				assert.False(t, env.Success)
				assert.Equal(t, tt.wantCode, env.Error.Code)
			})
		}
	})

	t.Run("missing_name_fails_validation", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockProvisioner{}

		v1.RegisterProvisionRoutes(api, svc)

		resp := api.PostCtx(superadminCtx(), "/provision", map[string]any{
			"ownerEmail": "owner@demo-bistro.com",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
		env := decodeEnvelope(t, resp.Body)
		assert.False(t, env.Success)
		assert.Equal(t, v1.CodeValidationError, env.Error.Code)
	})
}
