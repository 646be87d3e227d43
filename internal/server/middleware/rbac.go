package middleware

import "net/http"

// RequireRole returns middleware that checks if the authenticated admin has
// one of the allowed roles. It must be chained after the Auth middleware,
// which stores the role in the request context via ContextKeyAdminRole.
//
// Returns 401 Unauthorized when no admin is found in context (Auth middleware
// not applied or authentication failed). Returns 403 Forbidden when the role
// does not match any of the allowed roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFromContext(r.Context())
			if !ok || role == "" {
				writeUnauthorized(w)
				return
			}

			if _, match := allowed[role]; !match {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"success":false,"error":{"code":"FORBIDDEN","message":"insufficient permissions"}}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
