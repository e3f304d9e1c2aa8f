// internal/api/client_test.go
//
// Unit-tests for the authenticated fetch proxy against a fake backend.
//
// Run: go test ./internal/api -v

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/yanizio/reset/internal/session"
)

func testStore(t *testing.T) *session.Store {
	t.Helper()
	st, err := session.NewStore("api-test-secret", false)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return st
}

// authedRequest builds an incoming browser request carrying a committed
// session cookie for the given token.
func authedRequest(t *testing.T, st *session.Store, token string) *http.Request {
	t.Helper()
	s := &session.Session{}
	s.SetUser(session.User{AccessToken: token, Name: "Jane", Email: "user@example.com"})
	header, err := st.Commit(s)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	pair := header
	if i := strings.IndexByte(header, ';'); i != -1 {
		pair = header[:i]
	}
	req := httptest.NewRequest(http.MethodGet, "/page", nil)
	req.Header.Set("Cookie", pair)
	return req
}

func TestFetch_NoToken_NoNetworkCall(t *testing.T) {
	st := testStore(t)

	var calls atomic.Int64
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer backend.Close()

	c := New(backend.URL, st, nil)
	incoming := httptest.NewRequest(http.MethodGet, "/page", nil) // no cookie

	_, err := Fetch[map[string]any](context.Background(), c, "/users/me", incoming)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
	if n := calls.Load(); n != 0 {
		t.Fatalf("transport called %d times, want 0", n)
	}
}

func TestFetch_401_IsNotAuthorized(t *testing.T) {
	st := testStore(t)

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"token expired"}`)) // body must be ignored
	}))
	defer backend.Close()

	c := New(backend.URL, st, nil)
	_, err := Fetch[map[string]any](context.Background(), c, "/users/me", authedRequest(t, st, "tok1"))
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("err = %v, want ErrNotAuthorized", err)
	}
}

func TestFetch_204_EmptySuccess(t *testing.T) {
	st := testStore(t)

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer backend.Close()

	c := New(backend.URL, st, nil)
	got, err := Fetch[map[string]string](context.Background(), c, "/lessons/1/mark-as-viewed",
		authedRequest(t, st, "tok1"), WithMethod(http.MethodPost))
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if got != nil {
		t.Fatalf("result = %#v, want zero value", got)
	}
}

func TestFetch_UnparsableBody_EmptySuccess(t *testing.T) {
	st := testStore(t)

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<!-- definitely not json -->"))
	}))
	defer backend.Close()

	c := New(backend.URL, st, nil)
	got, err := Fetch[map[string]string](context.Background(), c, "/users/me", authedRequest(t, st, "tok1"))
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if got != nil {
		t.Fatalf("result = %#v, want zero value", got)
	}
}

func TestFetch_BackendError_MessageExtraction(t *testing.T) {
	st := testStore(t)

	cases := []struct {
		name string
		body string
		want string
	}{
		{"detail", `{"detail":"correo no inscrito"}`, "correo no inscrito"},
		{"message", `{"message":"upstream sad"}`, "upstream sad"},
		{"garbage", `not json at all`, "HTTP error! status: 500"},
	}

	for _, tc := range cases {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(tc.body))
		}))

		c := New(backend.URL, st, nil)
		_, err := Fetch[map[string]any](context.Background(), c, "/users/me", authedRequest(t, st, "tok1"))

		var be *BackendError
		if !errors.As(err, &be) {
			t.Fatalf("%s: err = %v, want *BackendError", tc.name, err)
		}
		if be.Status != http.StatusInternalServerError || be.Message != tc.want {
			t.Fatalf("%s: got (%d, %q), want (500, %q)", tc.name, be.Status, be.Message, tc.want)
		}
		backend.Close()
	}
}

func TestFetch_HeadersAndOverrides(t *testing.T) {
	st := testStore(t)

	var gotAuth, gotCT, gotExtra string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCT = r.Header.Get("Content-Type")
		gotExtra = r.Header.Get("Accept-Language")
		w.Write([]byte(`{}`))
	}))
	defer backend.Close()

	c := New(backend.URL, st, nil)
	_, err := Fetch[map[string]any](context.Background(), c, "/users/me",
		authedRequest(t, st, "tok1"),
		WithMethod(http.MethodPost),
		WithJSON(map[string]string{"name": "Jane"}),
		WithHeader("Accept-Language", "es"),
	)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if gotAuth != "Bearer tok1" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotCT != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", gotCT)
	}
	if gotExtra != "es" {
		t.Fatalf("caller header lost: %q", gotExtra)
	}
}

func TestFetch_RawBody_SkipsJSONContentType(t *testing.T) {
	st := testStore(t)

	var gotCT string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCT = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer backend.Close()

	c := New(backend.URL, st, nil)
	_, err := Fetch[struct{}](context.Background(), c, "/resources/upload-image",
		authedRequest(t, st, "tok1"),
		WithMethod(http.MethodPost),
		WithRawBody("multipart/form-data; boundary=xyz", strings.NewReader("--xyz--")),
	)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if gotCT != "multipart/form-data; boundary=xyz" {
		t.Fatalf("Content-Type = %q, want multipart boundary preserved", gotCT)
	}
}
