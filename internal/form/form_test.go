// internal/form/form_test.go
//
// Exercises the YAML loader, CSRF round-trip, and ValidateForm.
//
// Run: go test ./internal/form -v

package form

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

const loginYAML = `
id: auth/login
title: Sign in
fields:
  - name: email
    label: Email address
    type: email
    required: true
    maxlength: 254
`

func writeTempForm(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "login.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp form: %v", err)
	}
	return path
}

func TestLoadFormDef_OK(t *testing.T) {
	fd, err := LoadFormDef(writeTempForm(t, loginYAML))
	if err != nil {
		t.Fatalf("LoadFormDef: %v", err)
	}
	if fd.ID != "auth/login" || len(fd.Fields) != 1 {
		t.Fatalf("unexpected def: %#v", fd)
	}
	if !fd.Fields[0].Required || fd.Fields[0].Type != "email" {
		t.Fatalf("field metadata lost: %#v", fd.Fields[0])
	}
}

func TestLoadFormDef_Rejections(t *testing.T) {
	cases := map[string]string{
		"missing id":      "title: x\nfields:\n  - {name: a, label: A, type: text}\n",
		"no fields":       "id: c/f\ntitle: x\n",
		"field sans name": "id: c/f\nfields:\n  - {label: A, type: text}\n",
		"bad pattern":     "id: c/f\nfields:\n  - {name: a, label: A, type: text, pattern: '['}\n",
	}
	for name, body := range cases {
		if _, err := LoadFormDef(writeTempForm(t, body)); err == nil {
			t.Errorf("%s: LoadFormDef accepted invalid definition", name)
		}
	}
}

func TestCSRF_RoundTrip(t *testing.T) {
	tok, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if !VerifyToken(tok) {
		t.Fatal("fresh token did not verify")
	}
	if VerifyToken(tok + "x") {
		t.Fatal("tampered token verified")
	}
	if VerifyToken("") {
		t.Fatal("empty token verified")
	}
}

// validPost builds a form body that clears the CSRF and timing gates.
func validPost(t *testing.T, kv map[string]string) url.Values {
	t.Helper()
	tok, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	v := url.Values{}
	v.Set("csrf_token", tok)
	v.Set("render_ts", strconv.FormatInt(time.Now().Add(-5*time.Second).UnixMicro(), 10))
	for k, val := range kv {
		v.Set(k, val)
	}
	return v
}

func TestValidateForm(t *testing.T) {
	fd, err := LoadFormDef(writeTempForm(t, loginYAML))
	if err != nil {
		t.Fatalf("LoadFormDef: %v", err)
	}
	register(fd)

	// Happy path: email is normalised to lower case.
	clean, errs := ValidateForm("auth/login", validPost(t, map[string]string{
		"email": "User@Example.COM",
	}))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if clean["email"] != "user@example.com" {
		t.Fatalf("email = %v, want lower-cased", clean["email"])
	}

	// Missing required field.
	_, errs = ValidateForm("auth/login", validPost(t, nil))
	if len(errs) != 1 || errs[0].Name != "email" {
		t.Fatalf("want single email error, got %v", errs)
	}

	// Broken address.
	_, errs = ValidateForm("auth/login", validPost(t, map[string]string{
		"email": "not-an-address",
	}))
	if len(errs) != 1 {
		t.Fatalf("want single error, got %v", errs)
	}

	// Bad CSRF short-circuits before field checks.
	v := validPost(t, map[string]string{"email": "user@example.com"})
	v.Set("csrf_token", "junk")
	_, errs = ValidateForm("auth/login", v)
	if len(errs) != 1 || errs[0].Name != "" {
		t.Fatalf("want form-level CSRF error, got %v", errs)
	}

	// Expired render timestamp.
	v = validPost(t, map[string]string{"email": "user@example.com"})
	v.Set("render_ts", strconv.FormatInt(time.Now().Add(-time.Hour).UnixMicro(), 10))
	_, errs = ValidateForm("auth/login", v)
	if len(errs) != 1 || errs[0].Name != "" {
		t.Fatalf("want form-level timing error, got %v", errs)
	}
}
