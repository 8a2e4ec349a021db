// Package api implements the Driftpad REST API using chi.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/nmarks/driftpad/internal/auth"
)

type ctxKey int

const claimsKey ctxKey = iota

// RequireAuth returns middleware that validates the Bearer access token and
// stores its claims on the request context. Requests without a valid token
// get 401.
func RequireAuth(issuer *auth.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			claims, err := issuer.ParseToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// callerID returns the authenticated user id from the request context, or ""
// when the route is outside the auth group.
func callerID(r *http.Request) string {
	claims, ok := r.Context().Value(claimsKey).(*auth.Claims)
	if !ok {
		return ""
	}
	return claims.Subject
}
