package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"medigenius/internal/access"
	"medigenius/internal/identity"
	"medigenius/internal/middleware"
	"medigenius/internal/session"
)

// Auth exchanges identity provider tokens for sessions.
type Auth struct {
	verifier *identity.Verifier
	sessions *session.Store
	gate     *access.Gate
}

// NewAuth creates a new Auth handler group.
func NewAuth(verifier *identity.Verifier, sessions *session.Store, gate *access.Gate) *Auth {
	return &Auth{verifier: verifier, sessions: sessions, gate: gate}
}

type signInRequest struct {
	Token string `json:"token"`
}

type sessionResponse struct {
	Subject     string `json:"subject"`
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	IsAdmin     bool   `json:"is_admin"`
	Whitelisted bool   `json:"whitelisted"`
	CSRFToken   string `json:"csrf_token,omitempty"`
}

// SignIn verifies the identity token (JSON body or Bearer header), checks
// the allow-list and starts a session.
func (a *Auth) SignIn(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if token == "" {
		var req signInRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		token = req.Token
	}
	if strings.TrimSpace(token) == "" {
		writeError(w, http.StatusBadRequest, "identity token is required")
		return
	}

	id, err := a.verifier.Verify(token)
	if err != nil {
		if !errors.Is(err, identity.ErrInvalidToken) {
			slog.Error("identity verify failed", "error", err)
		}
		writeError(w, http.StatusUnauthorized, "invalid identity token")
		return
	}

	if !a.gate.IsWhitelisted(r.Context(), id.Email) {
		slog.Info("sign-in refused, not on allow-list", "email", id.Email)
		writeError(w, http.StatusForbidden, "this account is not on the access list")
		return
	}

	data := &session.Data{
		Subject: id.Subject,
		Email:   id.Email,
		Name:    id.Name,
		IsAdmin: a.gate.IsAdmin(id.Email),
	}
	if _, err := a.sessions.Create(r.Context(), w, data); err != nil {
		slog.Error("session create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not start session")
		return
	}

	slog.Info("signed in", "subject", id.Subject, "admin", data.IsAdmin)
	writeJSON(w, http.StatusOK, sessionResponse{
		Subject:     data.Subject,
		Email:       data.Email,
		Name:        data.Name,
		IsAdmin:     data.IsAdmin,
		Whitelisted: true,
		CSRFToken:   middleware.CSRFToken(w, r),
	})
}

// Current reports the signed-in identity and whether it is still allowed.
func (a *Auth) Current(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Subject:     sess.Subject,
		Email:       sess.Email,
		Name:        sess.Name,
		IsAdmin:     sess.IsAdmin,
		Whitelisted: a.gate.IsWhitelisted(r.Context(), sess.Email),
		CSRFToken:   middleware.CSRFToken(w, r),
	})
}

// SignOut destroys the session.
func (a *Auth) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Error("session destroy failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}
