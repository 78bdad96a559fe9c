package auth

import (
	"context"
	"net/http"
)

// contextKey is a private type for context keys to avoid collisions with
// other packages.
type contextKey string

// userIDContextKey is the key under which the resolved caller id is stored.
const userIDContextKey contextKey = "userID"

// RequireSession resolves the caller from the session cookie and injects the
// user id into the request context. Requests that fail resolution are
// rejected with 401 before any handler or data access runs.
func RequireSession(sessions *SessionManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := sessions.ResolveUserID(r)
			if err != nil {
				WriteError(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), userIDContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCSRF enforces the double-submit check. Mounted only on
// state-changing routes; reads never pass through it.
func RequireCSRF(sessions *SessionManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := sessions.CheckCSRF(r); err != nil {
				WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext retrieves the caller id stored by RequireSession.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok
}
