// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
)

// Recoverer catches panics in downstream handlers, logs the stack trace,
// reports the panic to Sentry when a client is configured and returns a
// JSON 500 instead of crashing the server.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.Error("panic recovered",
				"error", fmt.Sprint(rec),
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			if hub := sentry.CurrentHub(); hub.Client() != nil {
				hub.WithScope(func(scope *sentry.Scope) {
					scope.SetRequest(r)
					if sess := SessionFromCtx(r.Context()); sess != nil {
						scope.SetUser(sentry.User{ID: sess.Subject})
					}
					hub.RecoverWithContext(r.Context(), rec)
				})
			}
			writeError(w, http.StatusInternalServerError, "internal error")
		}()

		next.ServeHTTP(w, r)
	})
}
