package api

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const tokenContextKey contextKey = "bearerToken"

// BearerTokenMiddleware extracts the bearer token from the Authorization
// header. Token and session validity are checked by the handlers, so that
// each endpoint can answer with its own body shape.
func (api *Api) BearerTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "No token provided")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			writeError(w, http.StatusUnauthorized, "No token provided")
			return
		}

		ctx := context.WithValue(r.Context(), tokenContextKey, parts[1])
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// tokenFromContext retrieves the bearer token placed by the middleware.
func tokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey).(string)
	return token, ok
}
