// Package router sets up all HTTP routes and middleware chains for the
// MediGenius API. Routes split into public, signed-in and admin groups.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"medigenius/internal/access"
	"medigenius/internal/handlers"
	"medigenius/internal/middleware"
	"medigenius/internal/session"
)

// Deps carries everything the route tree needs.
type Deps struct {
	Sessions      *session.Store
	Gate          *access.Gate
	CSRF          *middleware.CSRF
	SignInLimiter *middleware.RateLimiter

	Auth   *handlers.Auth
	Studio *handlers.Studio
	Admin  *handlers.Admin
}

// New creates and returns the configured Chi router.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.LoadSession(d.Sessions))
		r.Use(d.CSRF.Middleware)

		r.Route("/session", func(r chi.Router) {
			r.With(d.SignInLimiter.Middleware).Post("/", d.Auth.SignIn)
			r.Get("/", d.Auth.Current)
			r.Delete("/", d.Auth.SignOut)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.RequireWhitelisted(d.Gate))

			r.Get("/channels", d.Studio.Channels)

			r.Route("/credentials", func(r chi.Router) {
				r.Get("/", d.Studio.GetCredentials)
				r.Put("/", d.Studio.PutCredentials)
				r.Delete("/", d.Studio.DeleteCredentials)
				r.Get("/status", d.Studio.CredentialStatus)
				r.Post("/check", d.Studio.CheckCredentials)
			})

			r.Post("/generate", d.Studio.Generate)
			r.Post("/generate/{channel}/retry", d.Studio.Retry)

			r.Route("/admin/whitelist", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(d.Gate))
				r.Get("/", d.Admin.WhitelistList)
				r.Post("/", d.Admin.WhitelistAdd)
				r.Delete("/{identifier}", d.Admin.WhitelistRemove)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
