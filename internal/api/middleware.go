// Package api implements the PlugConversaPro REST API using chi.
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Plugtour/plugconversa-pro-sub000/internal/tenant"
)

// ActorHeader names the operator performing a request. It is recorded on
// inbox events.
const ActorHeader = "X-Actor"

const defaultActor = "operator"

// AuthMiddleware returns middleware that validates a Bearer token.
// If enabled is false, all requests pass through (disabled mode).
// If enabled is true, requests must carry a valid "Authorization: Bearer <token>" header.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			got, found := strings.CutPrefix(auth, "Bearer ")
			if !found || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeErrorCode(w, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TenantMiddleware resolves the client id of every request and rejects
// requests without a valid one.
func TenantMiddleware() func(http.Handler) http.Handler {
	return tenant.Middleware(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorCode(w, http.StatusBadRequest, "invalid_client_id", "client_id must be a positive integer")
	})
}

// clientID returns the tenant resolved by TenantMiddleware.
func clientID(r *http.Request) int64 {
	id, _ := tenant.FromContext(r.Context())
	return id
}

func actor(r *http.Request) string {
	if a := strings.TrimSpace(r.Header.Get(ActorHeader)); a != "" {
		return a
	}
	return defaultActor
}
