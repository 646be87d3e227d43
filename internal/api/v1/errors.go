package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/platewise/platewise/internal/setuplink"
)

// Error codes returned in the response envelope.
const (
	CodeValidationError        = "VALIDATION_ERROR"
	CodeInvalidSlug            = "INVALID_SLUG"
	CodeOwnerEmailRequired     = "OWNER_EMAIL_REQUIRED"
	CodeEmailUnavailable       = "EMAIL_UNAVAILABLE"
	CodeDuplicateSlug          = "DUPLICATE_SLUG"
	CodeDuplicateRequest       = "DUPLICATE_REQUEST"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeForbidden              = "FORBIDDEN"
	CodeAuthUserCreationFailed = "AUTH_USER_CREATION_FAILED"
	CodeProvisioningFailed     = "PROVISIONING_FAILED"
	CodeTenantNotFound         = "TENANT_NOT_FOUND"
	CodeNoOwnerEmail           = "NO_OWNER_EMAIL"
	CodeRateLimited            = "RATE_LIMITED"
	CodeLinkGenerationFailed   = "LINK_GENERATION_FAILED"
	CodeLinkNotFound           = "LINK_NOT_FOUND"
	CodeLinkUsed               = "LINK_USED"
	CodeLinkExpired            = "LINK_EXPIRED"
	CodeInternal               = "INTERNAL"
)

// ErrorDetail is the error half of the response envelope.
type ErrorDetail struct {
	Code      string                   `json:"code"`
	Message   string                   `json:"message"`
	RequestID string                   `json:"requestId,omitempty"`
	RateLimit *setuplink.RateLimitInfo `json:"rateLimit,omitempty"`
}

// Error is the envelope for all failed responses. It implements
// huma.StatusError so handlers can return it directly and huma will
// serialize it as the response body.
type Error struct {
	status  int
	Success bool        `json:"success"`
	Detail  ErrorDetail `json:"error"`
}

func (e *Error) Error() string  { return e.Detail.Message }
func (e *Error) GetStatus() int { return e.status }

// apiError builds an envelope error carrying the chi request id, so a
// support engineer can line a client-reported failure up with the logs.
func apiError(ctx context.Context, status int, code, message string) *Error {
	return &Error{
		status:  status,
		Success: false,
		Detail: ErrorDetail{
			Code:      code,
			Message:   message,
			RequestID: chimw.GetReqID(ctx),
		},
	}
}

// UseEnvelopeErrors replaces huma's default error model so framework-level
// failures (body validation, unknown fields) use the same envelope as
// handler errors. Call once before registering operations.
func UseEnvelopeErrors() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		code := CodeInternal
		switch status {
		case http.StatusUnprocessableEntity, http.StatusBadRequest:
			code = CodeValidationError
		case http.StatusUnauthorized:
			code = CodeUnauthorized
		case http.StatusForbidden:
			code = CodeForbidden
		case http.StatusNotFound:
			code = "NOT_FOUND"
		}

		// Fold validation sub-errors into the message so clients see what
		// failed without a separate details array.
		for _, err := range errs {
			if err != nil {
				message += ": " + err.Error()
			}
		}

		return &Error{
			status:  status,
			Success: false,
			Detail:  ErrorDetail{Code: code, Message: message},
		}
	}
}
