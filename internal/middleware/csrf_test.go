package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"medigenius/internal/session"
)

func csrfCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == CSRFCookieName {
			return c
		}
	}
	t.Fatal("no CSRF cookie set")
	return nil
}

func TestCSRFIssuesCookie(t *testing.T) {
	for _, secure := range []bool{false, true} {
		next, _ := okHandler()
		rr := httptest.NewRecorder()
		NewCSRF(secure).Middleware(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/session", nil))

		c := csrfCookie(t, rr)
		if len(c.Value) != csrfTokenLength*2 {
			t.Errorf("token length: got %d", len(c.Value))
		}
		if c.Secure != secure {
			t.Errorf("Secure: got %v, want %v", c.Secure, secure)
		}
		if c.HttpOnly {
			t.Error("cookie must be readable by the client")
		}
	}
}

func TestCSRFUnsafeMethods(t *testing.T) {
	mw := NewCSRF(false)
	token := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

	tests := []struct {
		name   string
		method string
		header string
		want   int
	}{
		{"GET passes", http.MethodGet, "", http.StatusOK},
		{"POST without header", http.MethodPost, "", http.StatusForbidden},
		{"PUT wrong token", http.MethodPut, "nope", http.StatusForbidden},
		{"DELETE matching", http.MethodDelete, token, http.StatusOK},
		{"PATCH matching", http.MethodPatch, token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, _ := okHandler()
			req := httptest.NewRequest(tt.method, "/api/credentials", nil)
			req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: token})
			req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "abc"})
			if tt.header != "" {
				req.Header.Set(CSRFHeaderName, tt.header)
			}
			rr := httptest.NewRecorder()
			mw.Middleware(next).ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("got %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestCSRFBearerOnlyExempt(t *testing.T) {
	next, called := okHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/session", nil)
	req.Header.Set("Authorization", "Bearer id-token")

	rr := httptest.NewRecorder()
	NewCSRF(false).Middleware(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || !*called {
		t.Errorf("got %d called=%v, want 200 and called", rr.Code, *called)
	}
}

func TestCSRFToken(t *testing.T) {
	t.Run("from request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "abc"})
		if got := CSRFToken(httptest.NewRecorder(), req); got != "abc" {
			t.Errorf("got %q, want abc", got)
		}
	})

	t.Run("freshly issued", func(t *testing.T) {
		var got string
		h := NewCSRF(false).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = CSRFToken(w, r)
		}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if got == "" || got != csrfCookie(t, rr).Value {
			t.Errorf("token %q does not match issued cookie", got)
		}
	})
}
