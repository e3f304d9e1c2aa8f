// internal/otp/service.go
//
// Backend calls for passwordless sign-in.
//
// Context
//   Three unauthenticated endpoints drive the one-time-passcode flow:
//
//     POST /users/verify-email       {email}        → {isValid}
//     POST /auth/verification-code   {email}        → 2xx (code delivered
//                                                     out-of-band by email)
//     POST /auth/verify-code         {email, code}  → {accessToken, name,
//                                                     email}
//
//   No code is ever stored locally; issuance, delivery, expiry, and
//   matching are entirely the backend's concern.  These calls run before a
//   session exists, so they bypass the authenticated proxy on purpose.
//
//------------------------------------------------------------------------------

package otp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/yanizio/reset/internal/session"
)

// Service issues the unauthenticated auth calls.  Construct once in main.
type Service struct {
	base string
	http *http.Client
}

// NewService returns a Service rooted at base.  hc may be nil.
func NewService(base string, hc *http.Client) *Service {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Service{base: base, http: hc}
}

// VerifyEmail asks the backend whether email is enrolled.
func (s *Service) VerifyEmail(ctx context.Context, email string) (bool, error) {
	var out struct {
		IsValid bool `json:"isValid"`
	}
	if err := s.postJSON(ctx, "/users/verify-email", map[string]string{"email": email}, &out); err != nil {
		return false, err
	}
	return out.IsValid, nil
}

// CreateVerificationCode asks the backend to generate a code and deliver
// it to email.  Success is any 2xx; the body is ignored.
func (s *Service) CreateVerificationCode(ctx context.Context, email string) error {
	return s.postJSON(ctx, "/auth/verification-code", map[string]string{"email": email}, nil)
}

// VerifyCode exchanges the {email, code} pair for the user identity.
func (s *Service) VerifyCode(ctx context.Context, email, code string) (session.User, error) {
	var u session.User
	if err := s.postJSON(ctx, "/auth/verify-code",
		map[string]string{"email": email, "code": code}, &u); err != nil {
		return session.User{}, err
	}
	return u, nil
}

// postJSON posts body as JSON and decodes a 2xx answer into out (when out
// is non-nil).  Any non-2xx status is an error; the backend does not
// distinguish causes in what it surfaces here.
func (s *Service) postJSON(ctx context.Context, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("otp: marshal %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.base+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("otp: build %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("otp: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("otp: %s: status %d", path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("otp: decode %s: %w", path, err)
	}
	return nil
}
