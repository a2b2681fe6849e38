// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"

	"medigenius/internal/access"
	"medigenius/internal/session"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

// SessionKey is the context key for the session data.
const SessionKey contextKey = "session"

// LoadSession reads the session from Valkey (if one exists) and stores it
// in the request context. It does not block unauthenticated requests.
func LoadSession(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := store.Get(r.Context(), r)
			if err == nil && sess != nil {
				ctx := context.WithValue(r.Context(), SessionKey, sess)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects requests without a session.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromCtx(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireWhitelisted re-checks the allow-list on every request, so a
// removed entry takes effect without waiting for the session to expire.
// Must be used after RequireAuth.
func RequireWhitelisted(gate *access.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromCtx(r.Context())
			if sess == nil {
				writeError(w, http.StatusUnauthorized, "sign in required")
				return
			}
			if !gate.IsWhitelisted(r.Context(), sess.Email) {
				writeError(w, http.StatusForbidden, "this account is not on the access list")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin restricts access to configured admins.
func RequireAdmin(gate *access.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromCtx(r.Context())
			if sess == nil {
				writeError(w, http.StatusUnauthorized, "sign in required")
				return
			}
			if !sess.IsAdmin && !gate.IsAdmin(sess.Email) {
				writeError(w, http.StatusForbidden, "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if no session is present.
func SessionFromCtx(ctx context.Context) *session.Data {
	sess, _ := ctx.Value(SessionKey).(*session.Data)
	return sess
}
