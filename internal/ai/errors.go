// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

// Kind classifies a generation failure independently of which provider
// produced it.
type Kind string

const (
	KindValidation         Kind = "validation_error"
	KindNoCredential       Kind = "no_credential"
	KindMissingCredential  Kind = "missing_credential"
	KindAuthRejected       Kind = "auth_rejected"
	KindQuotaExceeded      Kind = "quota_exceeded"
	KindContentBlocked     Kind = "content_blocked"
	KindTransport          Kind = "transport_failure"
	KindUnexpectedResponse Kind = "unexpected_response_shape"
)

// Error is the normalized error returned by every adapter.
type Error struct {
	Kind     Kind
	Provider AdapterID
	Msg      string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Provider != "" {
		b.WriteString(string(e.Provider))
		b.WriteString(": ")
	}
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same Kind, so callers can write
// errors.Is(err, &ai.Error{Kind: ai.KindNoCredential}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Provider == "" || t.Provider == e.Provider)
}

// NewError builds an *Error.
func NewError(kind Kind, provider AdapterID, msg string, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Msg: msg, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" when
// err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// classify converts any error returned by a provider call into an *Error.
func classify(provider AdapterID, err error) *Error {
	if err == nil {
		return nil
	}

	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewError(KindTransport, provider, "request timed out", err)
	}

	var gv genai.APIError
	if errors.As(err, &gv) {
		return classifyStatus(provider, gv.Code, gv.Message, err)
	}
	var gp *genai.APIError
	if errors.As(err, &gp) && gp != nil {
		return classifyStatus(provider, gp.Code, gp.Message, err)
	}

	var oe *openai.Error
	if errors.As(err, &oe) {
		return classifyStatus(provider, oe.StatusCode, oe.Message, err)
	}

	var ne net.Error
	if errors.As(err, &ne) {
		return NewError(KindTransport, provider, "network error", err)
	}

	return NewError(KindTransport, provider, "request failed", err)
}

// classifyStatus maps a non-2xx HTTP status (plus the provider's message)
// onto a Kind.
func classifyStatus(provider AdapterID, status int, body string, err error) *Error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewError(KindAuthRejected, provider, "credential rejected", err)
	case status == http.StatusTooManyRequests:
		return NewError(KindQuotaExceeded, provider, "rate or usage limit reached", err)
	case status == http.StatusBadRequest && looksBlocked(body):
		return NewError(KindContentBlocked, provider, "prompt rejected by safety filter", err)
	case status == http.StatusBadRequest && strings.Contains(strings.ToLower(body), "api key"):
		return NewError(KindAuthRejected, provider, "credential rejected", err)
	case status >= 500 || status == http.StatusRequestTimeout:
		return NewError(KindTransport, provider, fmt.Sprintf("provider unavailable (status %d)", status), err)
	default:
		return NewError(KindUnexpectedResponse, provider, fmt.Sprintf("unexpected status %d", status), err)
	}
}

func looksBlocked(body string) bool {
	b := strings.ToLower(body)
	for _, s := range []string{"safety", "blocked", "content_filter", "content policy", "prohibited"} {
		if strings.Contains(b, s) {
			return true
		}
	}
	return false
}
