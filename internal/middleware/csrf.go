package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"medigenius/internal/session"
)

const (
	// csrfTokenLength is the byte length of CSRF tokens (32 bytes = 64 hex chars).
	csrfTokenLength = 32

	// CSRFCookieName is the cookie that holds the CSRF token.
	CSRFCookieName = "mg_csrf"

	// CSRFHeaderName is the header the browser client echoes the token in.
	CSRFHeaderName = "X-CSRF-Token"
)

// CSRF provides double-submit cookie protection for the JSON API. Every
// response carries a readable token cookie; state-changing requests must
// echo it in the X-CSRF-Token header. Requests authenticated purely by an
// Authorization header carry no ambient credentials and are exempt.
type CSRF struct {
	secure bool
}

// NewCSRF creates the middleware. secure marks the cookie Secure.
func NewCSRF(secure bool) *CSRF {
	return &CSRF{secure: secure}
}

// Middleware enforces the token on POST, PUT, PATCH and DELETE.
func (c *CSRF) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CSRFCookieName)
		if err != nil || cookie.Value == "" {
			token, err := generateCSRFToken()
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     CSRFCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: false, // the client reads it to fill the header
				Secure:   c.secure,
				SameSite: http.SameSiteStrictMode,
			})
			cookie = &http.Cookie{Value: token}
		}

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		if _, err := r.Cookie(session.CookieName); err != nil && r.Header.Get("Authorization") != "" {
			next.ServeHTTP(w, r)
			return
		}

		submitted := r.Header.Get(CSRFHeaderName)
		if submitted == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(submitted)) != 1 {
			writeError(w, http.StatusForbidden, "CSRF token mismatch")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// CSRFToken returns the token the client should echo, whether it arrived
// on the request or was just issued on the response.
func CSRFToken(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(CSRFCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	for _, c := range (&http.Response{Header: w.Header()}).Cookies() {
		if c.Name == CSRFCookieName {
			return c.Value
		}
	}
	return ""
}

func generateCSRFToken() (string, error) {
	b := make([]byte, csrfTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
