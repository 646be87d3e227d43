package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/platewise/platewise/internal/domain"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	AdminID   string `json:"aid"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
}

// Auth validates the bearer token and loads the administrator it names. The
// role stored in context is the current one from the administrators table,
// not the role frozen into the token at issue time.
func Auth(jwtSecret string, admins domain.AdminRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := extractBearer(r); tok != "" {
				ctx, ok := authenticateJWT(r.Context(), tok, jwtSecret, admins)
				if ok {
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			writeUnauthorized(w)
		})
	}
}

func extractBearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return auth[7:]
	}
	return ""
}

func authenticateJWT(ctx context.Context, tokenStr, secret string, admins domain.AdminRepository) (context.Context, bool) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return ctx, false
	}

	// Refresh tokens are only good for /auth/refresh.
	if claims.TokenType != "access" {
		return ctx, false
	}

	adminID, err := uuid.Parse(claims.AdminID)
	if err != nil {
		return ctx, false
	}

	admin, err := admins.GetByID(ctx, adminID)
	if err != nil {
		log.Debug().Err(err).Str("admin_id", claims.AdminID).Msg("auth: token names unknown administrator")
		return ctx, false
	}

	ctx = context.WithValue(ctx, ContextKeyAdminID, admin.ID)
	ctx = context.WithValue(ctx, ContextKeyAdminRole, admin.Role)
	return ctx, true
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"success":false,"error":{"code":"UNAUTHORIZED","message":"missing or invalid credentials"}}`))
}
