package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/platewise/platewise/internal/auth"
)

type LoginInput struct {
	Body struct {
		Email    string `json:"email" minLength:"3" maxLength:"255" doc:"Administrator email"`
		Password string `json:"password" minLength:"1" maxLength:"128" doc:"Password"` //nolint:gosec // G117: login credential DTO
	}
}

type LoginData struct {
	AccessToken  string `json:"access_token"`  //nolint:gosec // G117: auth response DTO
	RefreshToken string `json:"refresh_token"` //nolint:gosec // G117: auth response DTO
}

type LoginOutput struct {
	Body struct {
		Success bool      `json:"success"`
		Data    LoginData `json:"data"`
	}
}

type RefreshInput struct {
	Body struct {
		RefreshToken string `json:"refresh_token" minLength:"1" doc:"Refresh token"` //nolint:gosec // G117: token refresh DTO
	}
}

type RefreshData struct {
	AccessToken string `json:"access_token"` //nolint:gosec // G117: auth response DTO
}

type RefreshOutput struct {
	Body struct {
		Success bool        `json:"success"`
		Data    RefreshData `json:"data"`
	}
}

func RegisterAuthRoutes(api huma.API, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Login with email and password",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
		accessToken, refreshToken, err := authSvc.Login(ctx, input.Body.Email, input.Body.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				return nil, apiError(ctx, http.StatusUnauthorized, CodeUnauthorized, "invalid email or password")
			}
			return nil, apiError(ctx, http.StatusInternalServerError, CodeInternal, "login failed")
		}

		out := &LoginOutput{}
		out.Body.Success = true
		out.Body.Data.AccessToken = accessToken
		out.Body.Data.RefreshToken = refreshToken
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "refresh-token",
		Method:      http.MethodPost,
		Path:        "/auth/refresh",
		Summary:     "Refresh access token",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *RefreshInput) (*RefreshOutput, error) {
		accessToken, err := authSvc.RefreshToken(ctx, input.Body.RefreshToken)
		if err != nil {
			return nil, apiError(ctx, http.StatusUnauthorized, CodeUnauthorized, "invalid or expired refresh token")
		}

		out := &RefreshOutput{}
		out.Body.Success = true
		out.Body.Data.AccessToken = accessToken
		return out, nil
	})
}
