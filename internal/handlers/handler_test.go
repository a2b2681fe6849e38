// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure. Valkey is served by
// miniredis and providers by in-process stubs, so nothing here needs the
// network.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"medigenius/internal/ai"
	"medigenius/internal/cache"
	"medigenius/internal/credentials"
	"medigenius/internal/generation"
	"medigenius/internal/middleware"
	"medigenius/internal/models"
	"medigenius/internal/session"
)

type stubText struct{ id ai.AdapterID }

func (s stubText) Name() ai.AdapterID { return s.id }
func (s stubText) GenerateText(_ context.Context, _ string) (string, error) {
	return "copy from " + string(s.id), nil
}
func (s stubText) Check(context.Context) error { return nil }

// revokedText fails its live check the way a revoked key does.
type revokedText struct{ stubText }

func (r revokedText) Check(context.Context) error {
	return ai.NewError(ai.KindAuthRejected, r.id, "credential rejected", nil)
}

type stubImage struct{ id ai.AdapterID }

func (s stubImage) Name() ai.AdapterID { return s.id }
func (s stubImage) GenerateImage(_ context.Context, prompt string) (ai.Image, error) {
	return ai.Image{Data: []byte(prompt), MIMEType: "image/jpeg"}, nil
}
func (s stubImage) Check(context.Context) error { return nil }

// stubFactory binds a stub for every adapter the credentials unlock, the
// same way the real factory decides.
func stubFactory(_ context.Context, creds models.CredentialSet) (*ai.Clients, error) {
	var text []ai.TextGenerator
	var image []ai.ImageGenerator
	if creds.PrimaryKey != "" {
		text = append(text, stubText{ai.AdapterGemini})
		image = append(image, stubImage{ai.AdapterImagen})
	}
	switch creds.FastTextKey {
	case "":
	case "revoked":
		text = append(text, revokedText{stubText{ai.AdapterGroq}})
	default:
		text = append(text, stubText{ai.AdapterGroq})
	}
	if creds.VersatileTextKey != "" {
		text = append(text, stubText{ai.AdapterOpenRouter})
	}
	if creds.StockPhotoKey != "" {
		image = append(image, stubImage{ai.AdapterUnsplash})
	}
	image = append(image, stubImage{ai.AdapterPollinations})
	return ai.NewClientsWith(time.Second, text, image), nil
}

type testEnv struct {
	redis  *redis.Client
	mr     *miniredis.Miniredis
	creds  *credentials.Store
	usage  *cache.Usage
	studio *Studio
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	creds := credentials.NewStore(client, nil)
	usage := cache.NewUsage(client)
	gen := generation.NewService(stubFactory, generation.Config{})

	return &testEnv{
		redis:  client,
		mr:     mr,
		creds:  creds,
		usage:  usage,
		studio: NewStudio(gen, creds, usage),
	}
}

func (e *testEnv) sessions() *session.Store {
	return session.NewStore(e.redis, false)
}

// call invokes h as the signed-in user email with an optional JSON body
// and chi URL params given as key/value pairs.
func call(t *testing.T, h http.HandlerFunc, method, email string, body any, params ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				t.Fatalf("encode body: %v", err)
			}
		}
	}
	req := httptest.NewRequest(method, "/", &buf)

	ctx := req.Context()
	if email != "" {
		ctx = context.WithValue(ctx, middleware.SessionKey, &session.Data{Subject: "sub-" + email, Email: email})
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for i := 0; i+1 < len(params); i += 2 {
			rctx.URLParams.Add(params[i], params[i+1])
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}

	rec := httptest.NewRecorder()
	h(rec, req.WithContext(ctx))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return out
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status: got %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

// fakeWhitelist is an in-memory WhitelistManager.
type fakeWhitelist struct {
	mu      sync.Mutex
	entries []models.WhitelistEntry
	err     error
}

func (f *fakeWhitelist) List(context.Context) ([]models.WhitelistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []models.WhitelistEntry
	for _, e := range f.entries {
		if e.Active {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeWhitelist) Add(_ context.Context, entry models.WhitelistEntry) (*models.WhitelistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return addEntry(&f.entries, entry)
}

func (f *fakeWhitelist) Remove(_ context.Context, identifier string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	removed := false
	for i := range f.entries {
		e := &f.entries[i]
		if e.Active && (e.Email == identifier || e.Domain == identifier) {
			e.Active = false
			removed = true
		}
	}
	return removed, nil
}

func (f *fakeWhitelist) IsListed(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.Active && e.Email == email {
			return true, nil
		}
	}
	return false, nil
}
