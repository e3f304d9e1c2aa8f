// internal/otp/flow_test.go
//
// Unit-tests for the sign-in state machine against a fake backend.
//
// Run: go test ./internal/otp -v

package otp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
)

// fakeBackend scripts the three auth endpoints and counts hits.
type fakeBackend struct {
	enrolled    bool
	codeOK      bool
	verifyCalls atomic.Int64 // POST /auth/verification-code
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /users/verify-email", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"isValid": f.enrolled})
	})
	mux.HandleFunc("POST /auth/verification-code", func(w http.ResponseWriter, r *http.Request) {
		f.verifyCalls.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /auth/verify-code", func(w http.ResponseWriter, r *http.Request) {
		var in struct{ Email, Code string }
		json.NewDecoder(r.Body).Decode(&in)
		if !f.codeOK {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"accessToken": "tok1",
			"name":        "Jane",
			"email":       in.Email,
		})
	})
	return mux
}

func newTestFlow(t *testing.T, fb *fakeBackend) (*Flow, func()) {
	t.Helper()
	srv := httptest.NewServer(fb.handler())
	return NewFlow(NewService(srv.URL, nil)), srv.Close
}

func TestSubmitEmail_NotEnrolled(t *testing.T) {
	fb := &fakeBackend{enrolled: false}
	flow, done := newTestFlow(t, fb)
	defer done()

	state, err := flow.SubmitEmail(context.Background(), "user@example.com")
	if !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("err = %v, want ErrNotEnrolled", err)
	}
	if state != StateAwaitingEmail {
		t.Fatalf("state = %v, want awaiting-email", state)
	}
	if n := fb.verifyCalls.Load(); n != 0 {
		t.Fatalf("verification-code requested %d times for unenrolled email, want 0", n)
	}
}

func TestSubmitEmail_Enrolled(t *testing.T) {
	fb := &fakeBackend{enrolled: true}
	flow, done := newTestFlow(t, fb)
	defer done()

	state, err := flow.SubmitEmail(context.Background(), "user@example.com")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if state != StateAwaitingCode {
		t.Fatalf("state = %v, want awaiting-code", state)
	}
	if n := fb.verifyCalls.Load(); n != 1 {
		t.Fatalf("verification-code requested %d times, want 1", n)
	}
}

func TestSubmitCode_Success(t *testing.T) {
	fb := &fakeBackend{enrolled: true, codeOK: true}
	flow, done := newTestFlow(t, fb)
	defer done()

	user, state, err := flow.SubmitCode(context.Background(), "user@example.com", "1234567")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if state != StateAuthenticated {
		t.Fatalf("state = %v, want authenticated", state)
	}
	if user.AccessToken != "tok1" || user.Name != "Jane" || user.Email != "user@example.com" {
		t.Fatalf("unexpected user: %#v", user)
	}
}

func TestSubmitCode_Rejected(t *testing.T) {
	fb := &fakeBackend{enrolled: true, codeOK: false}
	flow, done := newTestFlow(t, fb)
	defer done()

	_, state, err := flow.SubmitCode(context.Background(), "user@example.com", "0000000")
	if !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("err = %v, want ErrInvalidCode", err)
	}
	if state != StateAwaitingCode {
		t.Fatalf("state = %v, want awaiting-code", state)
	}
}

func TestResend_NoStateChange(t *testing.T) {
	fb := &fakeBackend{enrolled: true}
	flow, done := newTestFlow(t, fb)
	defer done()

	if err := flow.Resend(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("Resend: %v", err)
	}
	if err := flow.Resend(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("Resend: %v", err)
	}
	// No local rate limit: both hit the backend.
	if n := fb.verifyCalls.Load(); n != 2 {
		t.Fatalf("verification-code requested %d times, want 2", n)
	}
}

func TestAssembleCode_IndexOrder(t *testing.T) {
	form := url.Values{}
	// Deliberately registered out of order; assembly must follow index order.
	form.Set("otp-3", "4")
	form.Set("otp-0", "1")
	form.Set("otp-6", "7")
	form.Set("otp-1", "2")
	form.Set("otp-5", "6")
	form.Set("otp-2", "3")
	form.Set("otp-4", "5")

	if got := AssembleCode(form); got != "1234567" {
		t.Fatalf("AssembleCode = %q, want 1234567", got)
	}

	// A missing digit shortens the code; the backend gets to reject it.
	form.Del("otp-4")
	if got := AssembleCode(form); got != "123467" {
		t.Fatalf("AssembleCode = %q, want 123467", got)
	}
}
