// internal/session/session_test.go
//
// Unit-tests for the cookie session store.
//
// Context
// -------
// The store must round-trip a committed session through the Cookie header,
// collapse tampered or foreign cookies to an empty session, and emit the
// required cookie attributes.
//
// Run: go test ./internal/session -v

package session

import (
	"strings"
	"testing"
)

func newTestStore(t *testing.T, secure bool) *Store {
	t.Helper()
	st, err := NewStore("unit-test-secret", secure)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return st
}

// cookiePair extracts "name=value" from a full Set-Cookie header value.
func cookiePair(header string) string {
	if i := strings.IndexByte(header, ';'); i != -1 {
		return header[:i]
	}
	return header
}

func TestRoundTrip(t *testing.T) {
	st := newTestStore(t, false)

	s := &Session{}
	s.SetUser(User{AccessToken: "tok1", Name: "Jane", Email: "user@example.com"})
	s.Set("theme", "dark")

	header, err := st.Commit(s)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got := st.Get(cookiePair(header))
	u, ok := got.User()
	if !ok {
		t.Fatalf("round-tripped session lost its user")
	}
	if u.AccessToken != "tok1" || u.Name != "Jane" || u.Email != "user@example.com" {
		t.Fatalf("unexpected user: %#v", u)
	}
	if v, ok := got.Value("theme"); !ok || v != "dark" {
		t.Fatalf("auxiliary value lost: %q, %v", v, ok)
	}
}

func TestGet_MissingCookie(t *testing.T) {
	st := newTestStore(t, false)

	for _, header := range []string{"", "other=abc", CookieName + "="} {
		s := st.Get(header)
		if _, ok := s.User(); ok {
			t.Fatalf("header %q: expected empty session", header)
		}
	}
}

func TestGet_TamperedCookie(t *testing.T) {
	st := newTestStore(t, false)

	s := &Session{}
	s.SetUser(User{AccessToken: "tok1", Name: "Jane", Email: "user@example.com"})
	header, err := st.Commit(s)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	pair := cookiePair(header)

	// Flip a character in the middle of the value.
	i := len(pair) - 5
	flipped := pair[:i] + "A" + pair[i+1:]
	if flipped == pair {
		flipped = pair[:i] + "B" + pair[i+1:]
	}
	if _, ok := st.Get(flipped).User(); ok {
		t.Fatalf("tampered cookie yielded an authenticated session")
	}

	// Cookie sealed under a different secret must also collapse to empty.
	other := newTestStore(t, false)
	if _, ok := other.Get(pair).User(); ok {
		t.Fatalf("foreign-key cookie yielded an authenticated session")
	}
}

func TestEmptyAccessTokenNotAuthenticated(t *testing.T) {
	st := newTestStore(t, false)

	s := &Session{}
	s.SetUser(User{AccessToken: "", Name: "Jane", Email: "user@example.com"})
	header, err := st.Commit(s)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if _, ok := st.Get(cookiePair(header)).User(); ok {
		t.Fatalf("empty access token must not authenticate")
	}
}

func TestCommit_CookieAttributes(t *testing.T) {
	st := newTestStore(t, true)

	header, err := st.Commit(&Session{})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	for _, want := range []string{CookieName + "=", "Path=/", "HttpOnly", "SameSite=Lax", "Secure"} {
		if !strings.Contains(header, want) {
			t.Fatalf("Set-Cookie %q missing %q", header, want)
		}
	}

	// Non-secure store must not set the Secure attribute.
	plain := newTestStore(t, false)
	header, err = plain.Commit(&Session{})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if strings.Contains(header, "Secure") {
		t.Fatalf("non-production cookie carries Secure: %q", header)
	}
}

func TestDestroy(t *testing.T) {
	st := newTestStore(t, false)

	header := st.Destroy()
	if !strings.Contains(header, CookieName+"=") || !strings.Contains(header, "Max-Age=0") {
		t.Fatalf("Destroy header does not delete the cookie: %q", header)
	}
}
