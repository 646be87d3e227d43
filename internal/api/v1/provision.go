package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/platewise/platewise/internal/domain"
	"github.com/platewise/platewise/internal/identity"
	"github.com/platewise/platewise/internal/provision"
	"github.com/platewise/platewise/internal/server/middleware"
	"github.com/platewise/platewise/internal/slug"
)

type ProvisionInput struct {
	Body struct {
		Name           string `json:"name" minLength:"1" maxLength:"255" doc:"Restaurant name"`
		Slug           string `json:"slug,omitempty" maxLength:"63" doc:"URL-safe slug; derived from name when omitted"`
		Timezone       string `json:"timezone,omitempty" maxLength:"64" doc:"IANA timezone, default UTC"`
		Currency       string `json:"currency,omitempty" maxLength:"3" doc:"ISO currency code, default USD"`
		Email          string `json:"email,omitempty" maxLength:"255" doc:"Business contact email"`
		Phone          string `json:"phone,omitempty" maxLength:"32" doc:"Business phone"`
		Website        string `json:"website,omitempty" maxLength:"255" doc:"Business website"`
		Address        string `json:"address,omitempty" maxLength:"512" doc:"Street address"`
		OwnerEmail     string `json:"ownerEmail" minLength:"3" maxLength:"255" doc:"Owner login email"`
		OwnerName      string `json:"ownerName,omitempty" maxLength:"255" doc:"Owner display name"`
		IdempotencyKey string `json:"idempotencyKey,omitempty" maxLength:"64" doc:"Client-chosen idempotency key; generated when omitted"`
	}
}

// OwnerCredentials carries the owner login issued during provisioning. The
// password is one-time and only present on the call that created the
// principal; replays of a completed attempt return it empty.
type OwnerCredentials struct {
	Email             string `json:"email"`
	Password          string `json:"password,omitempty"`
	TemporaryPassword bool   `json:"temporaryPassword" doc:"True when password carries a one-time credential the owner must change"`
}

type ProvisionData struct {
	TenantID         uuid.UUID        `json:"tenantId"`
	Slug             string           `json:"slug"`
	OwnerCredentials OwnerCredentials `json:"ownerCredentials"`
	IdempotencyKey   string           `json:"idempotencyKey"`
	Replayed         bool             `json:"replayed"`
}

type ProvisionOutput struct {
	Body struct {
		Success bool          `json:"success"`
		Data    ProvisionData `json:"data"`
	}
}

func RegisterProvisionRoutes(api huma.API, provisioner Provisioner) {
	huma.Register(api, huma.Operation{
		OperationID: "provision-tenant",
		Method:      http.MethodPost,
		Path:        "/provision",
		Summary:     "Provision a new tenant with its owner account",
		Tags:        []string{"Provisioning"},
	}, func(ctx context.Context, input *ProvisionInput) (*ProvisionOutput, error) {
		role, ok := middleware.RoleFromContext(ctx)
		if !ok || role != domain.RoleSuperadmin {
			return nil, apiError(ctx, http.StatusForbidden, CodeForbidden, "superadmin role required")
		}

		res, err := provisioner.Provision(ctx, provision.Request{
			Name:           input.Body.Name,
			Slug:           input.Body.Slug,
			Timezone:       input.Body.Timezone,
			Currency:       input.Body.Currency,
			Email:          input.Body.Email,
			Phone:          input.Body.Phone,
			Website:        input.Body.Website,
			Address:        input.Body.Address,
			OwnerEmail:     input.Body.OwnerEmail,
			OwnerName:      input.Body.OwnerName,
			IdempotencyKey: input.Body.IdempotencyKey,
		})
		if err != nil {
			return nil, mapProvisionError(ctx, err)
		}

		out := &ProvisionOutput{}
		out.Body.Success = true
		out.Body.Data = ProvisionData{
			TenantID: res.TenantID,
			Slug:     res.Slug,
			OwnerCredentials: OwnerCredentials{
				Email:             res.OwnerEmail,
				Password:          res.Password,
				TemporaryPassword: res.Password != "",
			},
			IdempotencyKey: res.IdempotencyKey,
			Replayed:       res.Replayed,
		}
		return out, nil
	})
}

// mapProvisionError translates service sentinels into envelope errors.
func mapProvisionError(ctx context.Context, err error) *Error {
	switch {
	case isSlugError(err):
		return apiError(ctx, http.StatusBadRequest, CodeInvalidSlug, err.Error())
	case errors.Is(err, provision.ErrOwnerEmailRequired):
		return apiError(ctx, http.StatusBadRequest, CodeOwnerEmailRequired, "owner email is required")
	case errors.Is(err, domain.ErrEmailUnavailable), errors.Is(err, identity.ErrEmailTaken):
		return apiError(ctx, http.StatusConflict, CodeEmailUnavailable, "owner email is already in use")
	case errors.Is(err, domain.ErrDuplicateSlug):
		return apiError(ctx, http.StatusConflict, CodeDuplicateSlug, "slug is already taken")
	case errors.Is(err, domain.ErrDuplicateRequest):
		return apiError(ctx, http.StatusConflict, CodeDuplicateRequest, "a provisioning request with this idempotency key is already in flight")
	case errors.Is(err, provision.ErrAttemptFailed):
		return apiError(ctx, http.StatusConflict, CodeDuplicateRequest, "a previous attempt with this idempotency key failed; submit with a new key")
	case errors.Is(err, provision.ErrIdentityStep):
		return apiError(ctx, http.StatusInternalServerError, CodeAuthUserCreationFailed, "tenant created but owner account creation failed; retry with the same idempotency key")
	default:
		return apiError(ctx, http.StatusInternalServerError, CodeProvisioningFailed, "provisioning failed")
	}
}

func isSlugError(err error) bool {
	return errors.Is(err, slug.ErrTooShort) ||
		errors.Is(err, slug.ErrTooLong) ||
		errors.Is(err, slug.ErrCharset) ||
		errors.Is(err, slug.ErrReserved)
}
