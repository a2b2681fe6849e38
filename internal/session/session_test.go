package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// testStore returns a Store backed by an in-process Valkey-compatible server.
func testStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client, false), mr
}

// requestWithCookies copies the cookies set on w onto a new request.
func requestWithCookies(w *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestSessionCreateAndGet(t *testing.T) {
	store, _ := testStore(t)
	ctx := context.Background()
	w := httptest.NewRecorder()

	id, err := store.Create(ctx, w, &Data{Subject: "user-1", Email: "dr@clinic.in", IsAdmin: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(id) != idLength*2 {
		t.Errorf("session ID length = %d, want %d", len(id), idLength*2)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}

	got, err := store.Get(ctx, requestWithCookies(w))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil session")
	}
	if got.Email != "dr@clinic.in" || got.Subject != "user-1" || !got.IsAdmin {
		t.Errorf("unexpected session data: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestSessionGet_NoCookie(t *testing.T) {
	store, _ := testStore(t)
	got, err := store.Get(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", got, err)
	}
}

func TestSessionGet_UnknownID(t *testing.T) {
	store, _ := testStore(t)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "does-not-exist"})

	got, err := store.Get(context.Background(), r)
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", got, err)
	}
}

func TestSessionDestroy(t *testing.T) {
	store, mr := testStore(t)
	ctx := context.Background()
	w := httptest.NewRecorder()

	id, err := store.Create(ctx, w, &Data{Email: "a@b.in"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	w2 := httptest.NewRecorder()
	if err := store.Destroy(ctx, w2, requestWithCookies(w)); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if mr.Exists(keyPrefix + id) {
		t.Error("session key still present after Destroy")
	}

	cleared := w2.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Errorf("expected an expiring cookie, got %+v", cleared)
	}
}

func TestSessionTTL(t *testing.T) {
	store, mr := testStore(t)
	w := httptest.NewRecorder()

	id, err := store.Create(context.Background(), w, &Data{Email: "a@b.in"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	mr.FastForward(DefaultTTL + 1)
	if mr.Exists(keyPrefix + id) {
		t.Error("session should expire after DefaultTTL")
	}
}
