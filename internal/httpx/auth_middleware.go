package httpx

import (
	"net/http"
	"strconv"
	"strings"

	"smartlibrary/internal/platform/crypto"
)

const RoleAdmin = "ADMIN"

// AuthMiddleware requires a valid bearer token and stores the caller in the
// request context.
func AuthMiddleware(secret string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token", nil)
				return
			}
			token := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := crypto.ParseToken(secret, token)
			if crypto.IsExpired(err) {
				JSONError(w, r, http.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired", nil)
				return
			}
			if err != nil {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token", nil)
				return
			}

			userID, err := strconv.ParseInt(claims.Sub, 10, 64)
			if err != nil || userID <= 0 {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token subject", nil)
				return
			}

			recordUser(r.Context(), userID)
			ctx := ContextWithUser(r.Context(), userID, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose role differs. It must run after
// AuthMiddleware.
func RequireRole(role string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFrom(r) != role {
				JSONError(w, r, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
