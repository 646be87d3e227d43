package v1

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/platewise/platewise/internal/domain"
	"github.com/platewise/platewise/internal/server/middleware"
)

type ListTenantsInput struct {
	Limit  int `query:"limit" minimum:"1" maximum:"200" default:"50" doc:"Max results"`
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Offset for pagination"`
}

type ListTenantsOutput struct {
	Body struct {
		Success bool             `json:"success"`
		Data    []*domain.Tenant `json:"data"`
	}
}

type GetTenantInput struct {
	ID uuid.UUID `path:"id" doc:"Tenant ID"`
}

type TenantOutput struct {
	Body struct {
		Success bool           `json:"success"`
		Data    *domain.Tenant `json:"data"`
	}
}

// TenantPatch carries the optional profile fields of a tenant update. Nil
// fields are left untouched.
type TenantPatch struct {
	Name     *string `json:"name,omitempty" maxLength:"255" doc:"Restaurant name"`
	Timezone *string `json:"timezone,omitempty" maxLength:"64" doc:"IANA timezone"`
	Currency *string `json:"currency,omitempty" maxLength:"3" doc:"ISO currency code"`
	Email    *string `json:"email,omitempty" maxLength:"255" doc:"Business contact email"`
	Phone    *string `json:"phone,omitempty" maxLength:"32" doc:"Business phone"`
	Website  *string `json:"website,omitempty" maxLength:"255" doc:"Business website"`
	Address  *string `json:"address,omitempty" maxLength:"512" doc:"Street address"`
}

type UpdateTenantInput struct {
	ID   uuid.UUID `path:"id" doc:"Tenant ID"`
	Body TenantPatch
}

type SetTenantStatusInput struct {
	ID uuid.UUID `path:"id" doc:"Tenant ID"`
}

func RegisterTenantRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tenants",
		Method:      http.MethodGet,
		Path:        "/tenants",
		Summary:     "List tenants",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *ListTenantsInput) (*ListTenantsOutput, error) {
		if err := requireAnyAdmin(ctx); err != nil {
			return nil, err
		}

		tenants, err := store.Tenants().ListPaginated(ctx, input.Limit, input.Offset)
		if err != nil {
			return nil, apiError(ctx, http.StatusInternalServerError, CodeInternal, "failed to list tenants")
		}

		out := &ListTenantsOutput{}
		out.Body.Success = true
		out.Body.Data = tenants
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-tenant",
		Method:      http.MethodGet,
		Path:        "/tenants/{id}",
		Summary:     "Get a tenant by ID",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *GetTenantInput) (*TenantOutput, error) {
		if err := requireAnyAdmin(ctx); err != nil {
			return nil, err
		}

		tenant, err := store.Tenants().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, apiError(ctx, http.StatusNotFound, CodeTenantNotFound, "tenant not found")
			}
			return nil, apiError(ctx, http.StatusInternalServerError, CodeInternal, "failed to look up tenant")
		}

		out := &TenantOutput{}
		out.Body.Success = true
		out.Body.Data = tenant
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-tenant",
		Method:      http.MethodPatch,
		Path:        "/tenants/{id}",
		Summary:     "Update tenant profile fields",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *UpdateTenantInput) (*TenantOutput, error) {
		if err := requireSuperadmin(ctx); err != nil {
			return nil, err
		}

		tenant, err := store.Tenants().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, apiError(ctx, http.StatusNotFound, CodeTenantNotFound, "tenant not found")
			}
			return nil, apiError(ctx, http.StatusInternalServerError, CodeInternal, "failed to look up tenant")
		}

		applyPatch(tenant, &input.Body)
		tenant.UpdatedAt = time.Now()

		if err := store.Tenants().Update(ctx, tenant); err != nil {
			return nil, apiError(ctx, http.StatusInternalServerError, CodeInternal, "failed to update tenant")
		}

		out := &TenantOutput{}
		out.Body.Success = true
		out.Body.Data = tenant
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "suspend-tenant",
		Method:      http.MethodPost,
		Path:        "/tenants/{id}/suspend",
		Summary:     "Suspend a tenant (soft disable)",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *SetTenantStatusInput) (*TenantOutput, error) {
		return setStatus(ctx, store, input.ID, domain.TenantSuspended)
	})

	huma.Register(api, huma.Operation{
		OperationID: "activate-tenant",
		Method:      http.MethodPost,
		Path:        "/tenants/{id}/activate",
		Summary:     "Reactivate a suspended tenant",
		Tags:        []string{"Tenants"},
	}, func(ctx context.Context, input *SetTenantStatusInput) (*TenantOutput, error) {
		return setStatus(ctx, store, input.ID, domain.TenantActive)
	})
}

func setStatus(ctx context.Context, store DataStore, id uuid.UUID, status domain.TenantStatus) (*TenantOutput, error) {
	if err := requireSuperadmin(ctx); err != nil {
		return nil, err
	}

	if err := store.Tenants().SetStatus(ctx, id, status); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apiError(ctx, http.StatusNotFound, CodeTenantNotFound, "tenant not found")
		}
		return nil, apiError(ctx, http.StatusInternalServerError, CodeInternal, "failed to update tenant status")
	}

	tenant, err := store.Tenants().GetByID(ctx, id)
	if err != nil {
		return nil, apiError(ctx, http.StatusInternalServerError, CodeInternal, "failed to reload tenant")
	}

	out := &TenantOutput{}
	out.Body.Success = true
	out.Body.Data = tenant
	return out, nil
}

func applyPatch(t *domain.Tenant, p *TenantPatch) {
	if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
		t.Name = strings.TrimSpace(*p.Name)
	}
	if p.Timezone != nil {
		t.Timezone = *p.Timezone
	}
	if p.Currency != nil {
		t.Currency = *p.Currency
	}
	if p.Email != nil {
		t.Email = *p.Email
	}
	if p.Phone != nil {
		t.Phone = *p.Phone
	}
	if p.Website != nil {
		t.Website = *p.Website
	}
	if p.Address != nil {
		t.Address = *p.Address
	}
}

func requireAnyAdmin(ctx context.Context) *Error {
	role, ok := middleware.RoleFromContext(ctx)
	if !ok || role == "" {
		return apiError(ctx, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
	}
	if role != domain.RoleSuperadmin && role != domain.RoleSupport {
		return apiError(ctx, http.StatusForbidden, CodeForbidden, "admin role required")
	}
	return nil
}

func requireSuperadmin(ctx context.Context) *Error {
	role, ok := middleware.RoleFromContext(ctx)
	if !ok || role == "" {
		return apiError(ctx, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
	}
	if role != domain.RoleSuperadmin {
		return apiError(ctx, http.StatusForbidden, CodeForbidden, "superadmin role required")
	}
	return nil
}
