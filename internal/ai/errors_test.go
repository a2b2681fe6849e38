package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/genai"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   Kind
	}{
		{http.StatusUnauthorized, "", KindAuthRejected},
		{http.StatusForbidden, "", KindAuthRejected},
		{http.StatusTooManyRequests, "", KindQuotaExceeded},
		{http.StatusBadRequest, "Request blocked by SAFETY settings", KindContentBlocked},
		{http.StatusBadRequest, "API key not valid. Please pass a valid API key.", KindAuthRejected},
		{http.StatusBadRequest, "bad field", KindUnexpectedResponse},
		{http.StatusServiceUnavailable, "", KindTransport},
		{http.StatusNotFound, "", KindUnexpectedResponse},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%s", tt.status, tt.want), func(t *testing.T) {
			got := classifyStatus(AdapterGemini, tt.status, tt.body, nil)
			if got.Kind != tt.want {
				t.Errorf("classifyStatus(%d, %q) = %q, want %q", tt.status, tt.body, got.Kind, tt.want)
			}
		})
	}
}

func TestClassify_GenAIValueError(t *testing.T) {
	err := fmt.Errorf("call: %w", genai.APIError{Code: 429, Message: "quota", Status: "RESOURCE_EXHAUSTED"})
	if got := classify(AdapterGemini, err).Kind; got != KindQuotaExceeded {
		t.Errorf("got %q, want %q", got, KindQuotaExceeded)
	}
}

func TestClassify_DeadlineIsTransport(t *testing.T) {
	if got := classify(AdapterGroq, context.DeadlineExceeded).Kind; got != KindTransport {
		t.Errorf("got %q, want %q", got, KindTransport)
	}
}

func TestClassify_KeepsExistingKind(t *testing.T) {
	orig := NewError(KindContentBlocked, AdapterImagen, "filtered", nil)
	if got := classify(AdapterImagen, fmt.Errorf("wrap: %w", orig)); got != orig {
		t.Errorf("classify should return the wrapped *Error unchanged, got %v", got)
	}
}

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("channel: %w", NewError(KindNoCredential, "", "no key", nil))
	if !errors.Is(err, &Error{Kind: KindNoCredential}) {
		t.Error("errors.Is should match on Kind")
	}
	if errors.Is(err, &Error{Kind: KindAuthRejected}) {
		t.Error("errors.Is must not match a different Kind")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("KindOf(plain error) should be empty")
	}
}

func TestErrorMessage(t *testing.T) {
	err := NewError(KindAuthRejected, AdapterGroq, "credential rejected", errors.New("401"))
	if got, want := err.Error(), "groq: credential rejected: 401"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
