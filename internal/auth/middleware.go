package auth

import (
	"context"
	"net/http"
	"strings"
)

type authUserKey struct{}

// UserFromContext returns the authenticated user's claims, or nil when the
// request carried no valid token.
func UserFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(authUserKey{}).(*Claims)
	return c
}

// ContextWithUser returns a context carrying the authenticated user's claims.
func ContextWithUser(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, authUserKey{}, claims)
}

// exempt reports whether a path is reachable without a token. Everything
// outside /api/ (probes, metrics, the dashboard shell) is open, the login and
// first-run setup endpoints must be, and the websocket endpoint authenticates
// itself through a query-param token since browsers cannot set headers on
// websocket upgrades.
func exempt(path string) bool {
	if !strings.HasPrefix(path, "/api/") {
		return true
	}
	if strings.HasPrefix(path, "/api/v1/ws/") {
		return true
	}
	switch path {
	case "/api/v1/auth/login",
		"/api/v1/auth/refresh",
		"/api/v1/auth/logout",
		"/api/v1/auth/setup",
		"/api/v1/auth/setup/status":
		return true
	}
	return false
}

// AuthMiddleware validates Bearer access tokens on API routes and attaches
// the resulting claims to the request context.
func AuthMiddleware(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exempt(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}

			claims, err := tokens.ValidateAccessToken(raw)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid or expired access token")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), claims)))
		})
	}
}
