// components/auth/auth_test.go
//
// End-to-end tests for the login, verify, and logout pages against a fake
// course backend.
//
// Run: go test ./components/auth -v

package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/reset/internal/component"
	"github.com/yanizio/reset/internal/form"
	"github.com/yanizio/reset/internal/otp"
	"github.com/yanizio/reset/internal/session"
	"github.com/yanizio/reset/internal/view"
)

// repoRoot points templates and form definitions at the checkout root.
const repoRoot = "../.."

// fakeBackend scripts the three auth endpoints.
type fakeBackend struct {
	enrolled  bool
	code      string // accepted code; anything else is rejected
	sendCalls atomic.Int64
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /users/verify-email", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"isValid": f.enrolled})
	})
	mux.HandleFunc("POST /auth/verification-code", func(w http.ResponseWriter, r *http.Request) {
		f.sendCalls.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /auth/verify-code", func(w http.ResponseWriter, r *http.Request) {
		var in struct{ Email, Code string }
		json.NewDecoder(r.Body).Decode(&in)
		if in.Code != f.code {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"accessToken": "tok-live",
			"name":        "Jane",
			"email":       in.Email,
		})
	})
	return mux
}

type env struct {
	router   chi.Router
	store    *session.Store
	backend  *fakeBackend
	teardown func()
}

func newEnv(t *testing.T, fb *fakeBackend) *env {
	t.Helper()

	view.SetRoot(repoRoot)
	if err := form.RegisterForms(repoRoot); err != nil {
		t.Fatalf("register forms: %v", err)
	}

	srv := httptest.NewServer(fb.handler())

	store, err := session.NewStore("test-secret", false)
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	flow := otp.NewFlow(otp.NewService(srv.URL, nil))

	component.Reset()
	component.Register(New(store, flow))

	r := chi.NewRouter()
	for _, c := range component.ByArea(component.AreaPublic) {
		c.Routes(r)
	}

	return &env{router: r, store: store, backend: fb, teardown: srv.Close}
}

// postForm sends an urlencoded POST that clears the CSRF and timing gates.
func (e *env) postForm(t *testing.T, path string, kv map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	tok, err := form.GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	v := url.Values{}
	v.Set("csrf_token", tok)
	v.Set("render_ts", strconv.FormatInt(time.Now().Add(-3*time.Second).UnixMicro(), 10))
	for k, val := range kv {
		v.Set(k, val)
	}

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(v.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) get(path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func body(rec *httptest.ResponseRecorder) string {
	b, _ := io.ReadAll(rec.Result().Body)
	return string(b)
}

func TestLoginPage_Renders(t *testing.T) {
	e := newEnv(t, &fakeBackend{})
	defer e.teardown()

	rec := e.get("/login")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /login = %d, want 200", rec.Code)
	}
	if html := body(rec); !strings.Contains(html, `name="csrf_token"`) {
		t.Fatal("login page missing CSRF input")
	}
}

func TestLogin_NotEnrolled(t *testing.T) {
	e := newEnv(t, &fakeBackend{enrolled: false})
	defer e.teardown()

	rec := e.postForm(t, "/login", map[string]string{"email": "who@example.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /login = %d, want 200 re-render", rec.Code)
	}
	if html := body(rec); !strings.Contains(html, "Correo no inscrito") {
		t.Fatal("unenrolled error message not shown")
	}
	if n := e.backend.sendCalls.Load(); n != 0 {
		t.Fatalf("code delivery requested %d times for unenrolled email", n)
	}
}

func TestLogin_Enrolled_RedirectsToVerify(t *testing.T) {
	e := newEnv(t, &fakeBackend{enrolled: true})
	defer e.teardown()

	rec := e.postForm(t, "/login", map[string]string{"email": "user@example.com"})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("POST /login = %d, want 303", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/verify?email=") {
		t.Fatalf("Location = %q, want /verify?email=…", loc)
	}
	if n := e.backend.sendCalls.Load(); n != 1 {
		t.Fatalf("code delivery requested %d times, want 1", n)
	}

	// The verify page carries the email through as a hidden field.
	rec = e.get(loc)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s = %d, want 200", loc, rec.Code)
	}
	if html := body(rec); !strings.Contains(html, `value="user@example.com"`) {
		t.Fatal("verify page lost the email")
	}
}

func TestVerify_CorrectCode_CommitsSession(t *testing.T) {
	e := newEnv(t, &fakeBackend{enrolled: true, code: "1234567"})
	defer e.teardown()

	kv := map[string]string{"email": "user@example.com"}
	for i, d := range []string{"1", "2", "3", "4", "5", "6", "7"} {
		kv["otp-"+strconv.Itoa(i)] = d
	}
	rec := e.postForm(t, "/verify", kv)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("POST /verify = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/app" {
		t.Fatalf("Location = %q, want /app", loc)
	}

	cookie := rec.Header().Get("Set-Cookie")
	if cookie == "" {
		t.Fatal("no session cookie committed")
	}
	user, ok := e.store.Get(cookie).User()
	if !ok {
		t.Fatal("committed cookie does not authenticate")
	}
	if user.AccessToken != "tok-live" || user.Email != "user@example.com" {
		t.Fatalf("unexpected user: %#v", user)
	}
}

func TestVerify_WrongCode_StaysOnPage(t *testing.T) {
	e := newEnv(t, &fakeBackend{enrolled: true, code: "1234567"})
	defer e.teardown()

	kv := map[string]string{"email": "user@example.com"}
	for i := 0; i < otp.CodeLength; i++ {
		kv["otp-"+strconv.Itoa(i)] = "0"
	}
	rec := e.postForm(t, "/verify", kv)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /verify = %d, want 200 re-render", rec.Code)
	}
	if html := body(rec); !strings.Contains(html, "Código inválido") {
		t.Fatal("invalid-code message not shown")
	}
	if rec.Header().Get("Set-Cookie") != "" {
		t.Fatal("cookie committed for a rejected code")
	}
}

func TestVerify_Resend(t *testing.T) {
	e := newEnv(t, &fakeBackend{enrolled: true})
	defer e.teardown()

	rec := e.postForm(t, "/verify", map[string]string{
		"email":   "user@example.com",
		"_action": "resend",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /verify resend = %d, want 200", rec.Code)
	}
	if html := body(rec); !strings.Contains(html, "Código reenviado") {
		t.Fatal("resend notice not shown")
	}
	if n := e.backend.sendCalls.Load(); n != 1 {
		t.Fatalf("code delivery requested %d times, want 1", n)
	}
}

func TestLogout_DestroysCookie(t *testing.T) {
	e := newEnv(t, &fakeBackend{})
	defer e.teardown()

	rec := e.get("/logout")
	if rec.Code != http.StatusFound {
		t.Fatalf("GET /logout = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Fatalf("Location = %q, want /login", loc)
	}
	cookie := rec.Header().Get("Set-Cookie")
	if !strings.Contains(cookie, session.CookieName+"=") || !strings.Contains(cookie, "Max-Age=0") {
		t.Fatalf("Set-Cookie = %q, want deletion of %s", cookie, session.CookieName)
	}
}

func TestLoginPage_AuthenticatedRedirects(t *testing.T) {
	e := newEnv(t, &fakeBackend{})
	defer e.teardown()

	sess := &session.Session{}
	sess.SetUser(session.User{AccessToken: "tok", Name: "J", Email: "j@x.com"})
	cookie, err := e.store.Commit(sess)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Header.Set("Cookie", strings.SplitN(cookie, ";", 2)[0])
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("GET /login signed in = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("Location = %q, want /", loc)
	}
}
