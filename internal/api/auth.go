package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/feedlens/feedlens/internal/auth"
	"github.com/feedlens/feedlens/internal/storage"
)

type contextKey int

const (
	userContextKey contextKey = iota
	tokenContextKey
)

// RequireSession resolves the bearer token to a user and stores both on
// the request context.
func RequireSession(mgr *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				httpError(w, http.StatusUnauthorized, "authentication_error", "missing bearer token")
				return
			}
			token := header[len(prefix):]

			user, err := mgr.Validate(token)
			switch {
			case errors.Is(err, storage.ErrNotFound):
				httpError(w, http.StatusUnauthorized, "authentication_error", "invalid session token")
				return
			case errors.Is(err, auth.ErrSessionExpired):
				httpError(w, http.StatusUnauthorized, "authentication_error", "session expired")
				return
			case err != nil:
				httpError(w, http.StatusInternalServerError, "api_error", "validating session: %v", err)
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			ctx = context.WithValue(ctx, tokenContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission rejects sessions whose role lacks the permission.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return RequireAnyPermission(permission)
}

// RequireAnyPermission rejects sessions whose role has none of the
// given permissions.
func RequireAnyPermission(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := requestUser(r)
			if !ok {
				httpError(w, http.StatusUnauthorized, "authentication_error", "no session")
				return
			}
			for _, p := range permissions {
				if auth.HasPermission(user.Role, p) {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpError(w, http.StatusForbidden, "permission_error", "role %q lacks the required permission", user.Role)
		})
	}
}

func requestUser(r *http.Request) (storage.User, bool) {
	user, ok := r.Context().Value(userContextKey).(storage.User)
	return user, ok
}

func requestToken(r *http.Request) (string, bool) {
	token, ok := r.Context().Value(tokenContextKey).(string)
	return token, ok
}
