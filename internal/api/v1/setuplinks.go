package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/platewise/platewise/internal/domain"
	"github.com/platewise/platewise/internal/server/middleware"
	"github.com/platewise/platewise/internal/setuplink"
)

type IssueSetupLinkInput struct {
	Body struct {
		TenantID         uuid.UUID `json:"tenantId" doc:"Tenant to issue the link for"`
		SendEmail        bool      `json:"sendEmail,omitempty" doc:"Deliver the link to the owner email"`
		LoginRedirectURL string    `json:"loginRedirectUrl,omitempty" maxLength:"512" doc:"Post-setup redirect target"`
	}
}

type SetupLinkData struct {
	TenantID   uuid.UUID               `json:"tenantId"`
	OwnerEmail string                  `json:"ownerEmail"`
	Mode       string                  `json:"mode" enum:"invite,recovery" doc:"invite before the owner principal exists, recovery after"`
	Link       string                  `json:"link"`
	ExpiresAt  time.Time               `json:"expiresAt"`
	EmailSent  bool                    `json:"emailSent"`
	RateLimit  setuplink.RateLimitInfo `json:"rateLimit"`
}

type IssueSetupLinkOutput struct {
	Body struct {
		Success bool          `json:"success"`
		Data    SetupLinkData `json:"data"`
	}
}

type ValidateSetupLinkInput struct {
	Body struct {
		LinkToken string `json:"linkToken" minLength:"1" maxLength:"128" doc:"Opaque setup-link token"`
		Action    string `json:"action,omitempty" enum:"validate,consume" default:"validate" doc:"consume atomically marks the token used"`
	}
}

// ValidationTenant is the public subset of tenant fields shown on the
// password-setup page: the account email the link sets a password for, plus
// enough identity to label the page. Nothing else leaks through the
// unauthenticated route.
type ValidationTenant struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Slug  string    `json:"slug"`
	Email string    `json:"email"`
}

type ValidationData struct {
	Valid     bool              `json:"valid"`
	Tenant    *ValidationTenant `json:"tenant,omitempty"`
	ExpiresAt time.Time         `json:"expiresAt"`
	Message   string            `json:"message"`
}

type ValidateSetupLinkOutput struct {
	Body struct {
		Success bool           `json:"success"`
		Data    ValidationData `json:"data"`
	}
}

func RegisterSetupLinkRoutes(api huma.API, links LinkService) {
	huma.Register(api, huma.Operation{
		OperationID: "issue-setup-link",
		Method:      http.MethodPost,
		Path:        "/setup-links",
		Summary:     "Issue a password-setup link for a tenant owner",
		Tags:        []string{"SetupLinks"},
	}, func(ctx context.Context, input *IssueSetupLinkInput) (*IssueSetupLinkOutput, error) {
		if err := requireAnyAdmin(ctx); err != nil {
			return nil, err
		}

		adminID, ok := middleware.AdminIDFromContext(ctx)
		if !ok {
			return nil, apiError(ctx, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
		}

		res, err := links.Issue(ctx, input.Body.TenantID, adminID, setuplink.IssueOptions{
			SendEmail:        input.Body.SendEmail,
			LoginRedirectURL: input.Body.LoginRedirectURL,
		})
		if err != nil {
			return nil, mapIssueError(ctx, err)
		}

		out := &IssueSetupLinkOutput{}
		out.Body.Success = true
		out.Body.Data = SetupLinkData{
			TenantID:   res.TenantID,
			OwnerEmail: res.OwnerEmail,
			Mode:       res.Mode,
			Link:       res.Link,
			ExpiresAt:  res.ExpiresAt,
			EmailSent:  res.EmailSent,
			RateLimit:  res.RateLimit,
		}
		return out, nil
	})
}

// RegisterPublicSetupLinkRoutes mounts the unauthenticated validation route.
// The caller is expected to wrap it in per-IP rate limiting.
func RegisterPublicSetupLinkRoutes(api huma.API, links LinkService) {
	huma.Register(api, huma.Operation{
		OperationID: "validate-setup-link",
		Method:      http.MethodPost,
		Path:        "/setup-links/validate",
		Summary:     "Validate or consume a setup-link token",
		Tags:        []string{"SetupLinks"},
	}, func(ctx context.Context, input *ValidateSetupLinkInput) (*ValidateSetupLinkOutput, error) {
		consume := input.Body.Action == "consume"

		res, err := links.Validate(ctx, input.Body.LinkToken, consume)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, apiError(ctx, http.StatusNotFound, CodeLinkNotFound, "setup link not found")
			}
			return nil, apiError(ctx, http.StatusInternalServerError, CodeInternal, "failed to validate setup link")
		}

		switch {
		case res.Used:
			return nil, apiError(ctx, http.StatusBadRequest, CodeLinkUsed, "this setup link has already been used")
		case res.Expired:
			return nil, apiError(ctx, http.StatusBadRequest, CodeLinkExpired, "this setup link has expired")
		}

		out := &ValidateSetupLinkOutput{}
		out.Body.Success = true
		out.Body.Data = ValidationData{
			Valid:     true,
			ExpiresAt: res.ExpiresAt,
			Message:   "link is valid",
		}
		if res.Tenant != nil {
			out.Body.Data.Tenant = &ValidationTenant{
				ID:    res.Tenant.ID,
				Name:  res.Tenant.Name,
				Slug:  res.Tenant.Slug,
				Email: res.Tenant.OwnerEmail,
			}
		}
		return out, nil
	})
}

func mapIssueError(ctx context.Context, err error) *Error {
	var rl *setuplink.RateLimitError
	switch {
	case errors.As(err, &rl):
		apiErr := apiError(ctx, http.StatusTooManyRequests, CodeRateLimited, "setup link issuance rate limit exceeded")
		apiErr.Detail.RateLimit = &rl.Info
		return apiErr
	case errors.Is(err, domain.ErrNotFound):
		return apiError(ctx, http.StatusNotFound, CodeTenantNotFound, "tenant not found")
	case errors.Is(err, setuplink.ErrNoOwnerEmail):
		return apiError(ctx, http.StatusBadRequest, CodeNoOwnerEmail, "tenant has no owner email on file")
	default:
		return apiError(ctx, http.StatusInternalServerError, CodeLinkGenerationFailed, "failed to generate setup link")
	}
}
