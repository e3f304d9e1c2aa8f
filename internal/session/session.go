// internal/session/session.go
//
// Cookie session store.
//
// Context
//   Authentication persists between requests as a single `_auth` cookie.
//   The payload is a small versioned JSON envelope, AES-256-GCM encrypted
//   with a key derived from the configured secret, and base64url encoded.
//   GCM authenticates as well as encrypts, so a tampered or truncated
//   cookie fails to open and simply collapses to a fresh empty session;
//   callers never see the difference between "missing" and "forged."
//
//   The Store is constructed once in main with the secret and the secure
//   flag, and injected into whatever needs it.  It holds no per-request
//   state; Get/Commit/Destroy only compute header values, and the caller
//   is responsible for attaching them to the response.
//
// Wire format
//   base64url( nonce | GCM(key, nonce, JSON{v, user, values}) )
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
)

// CookieName is the session cookie's name.
const CookieName = "_auth"

// envelopeVersion guards payload evolution.  Bump it when the envelope
// shape changes; old cookies then decode to an empty session and the user
// re-authenticates.
const envelopeVersion = 1

//
// ── Session data ────────────────────────────────────────────────────────────
//

// User is the identity written at the end of a successful OTP verification.
// The access token is the only field the proxy layer interprets.
type User struct {
	AccessToken string `json:"accessToken"`
	Name        string `json:"name"`
	Email       string `json:"email"`
}

// envelope is the on-wire JSON shape inside the encrypted cookie.
type envelope struct {
	V      int               `json:"v"`
	User   *User             `json:"user,omitempty"`
	Values map[string]string `json:"values,omitempty"`
}

// Session is a request-scoped key/value mapping plus the optional user.
// Zero sessions are valid and mean "not authenticated."
type Session struct {
	user   *User
	values map[string]string
}

// User returns the stored identity.  ok is false when no user is set or
// the stored access token is empty; an empty token never authenticates.
func (s *Session) User() (User, bool) {
	if s == nil || s.user == nil || s.user.AccessToken == "" {
		return User{}, false
	}
	return *s.user, true
}

// SetUser records the identity.  Called only after OTP verification.
func (s *Session) SetUser(u User) { s.user = &u }

// ClearUser removes the identity without touching other values.
func (s *Session) ClearUser() { s.user = nil }

// Set stores an auxiliary string value.
func (s *Session) Set(key, val string) {
	if s.values == nil {
		s.values = make(map[string]string, 2)
	}
	s.values[key] = val
}

// Value returns an auxiliary value and whether it was present.
func (s *Session) Value(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

//
// ── Store ───────────────────────────────────────────────────────────────────
//

// Store seals and opens session cookies.  Safe for concurrent use.
type Store struct {
	aead   cipher.AEAD
	secure bool
}

// NewStore derives the AES-256 key from secret via SHA-256 and prepares
// the GCM AEAD.  secure controls the cookie's Secure attribute; pass true
// for production-classified deployments.
func NewStore(secret string, secure bool) (*Store, error) {
	if secret == "" {
		return nil, fmt.Errorf("session: empty secret")
	}
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("session: cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("session: gcm: %w", err)
	}
	return &Store{aead: aead, secure: secure}, nil
}

// Get decodes the session from a raw Cookie header value.  It fails
// softly: a missing, malformed, or tampered cookie yields a fresh empty
// session rather than an error.
func (st *Store) Get(cookieHeader string) *Session {
	if cookieHeader == "" {
		return &Session{}
	}

	// Reuse net/http's cookie parsing rather than hand-rolling it.
	req := http.Request{Header: http.Header{"Cookie": []string{cookieHeader}}}
	c, err := req.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return &Session{}
	}

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil || len(raw) < st.aead.NonceSize() {
		return &Session{}
	}

	nonce, ct := raw[:st.aead.NonceSize()], raw[st.aead.NonceSize():]
	plain, err := st.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return &Session{} // forged or stale key
	}

	var env envelope
	if err := json.Unmarshal(plain, &env); err != nil || env.V != envelopeVersion {
		return &Session{}
	}
	return &Session{user: env.User, values: env.Values}
}

// FromRequest is sugar for Get on the request's Cookie header.
func (st *Store) FromRequest(r *http.Request) *Session {
	return st.Get(r.Header.Get("Cookie"))
}

// Commit serializes s into a Set-Cookie header value.  The cookie is
// http-only, same-site lax, path "/", and Secure per the store's flag.
func (st *Store) Commit(s *Session) (string, error) {
	env := envelope{V: envelopeVersion, User: s.user, Values: s.values}
	plain, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("session: marshal: %w", err)
	}

	nonce := make([]byte, st.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("session: nonce: %w", err)
	}
	sealed := st.aead.Seal(nonce, nonce, plain, nil)

	c := http.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(sealed),
		Path:     "/",
		HttpOnly: true,
		Secure:   st.secure,
		SameSite: http.SameSiteLaxMode,
	}
	return c.String(), nil
}

// Destroy returns a Set-Cookie header value instructing the browser to
// delete the session cookie.
func (st *Store) Destroy() string {
	c := http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   st.secure,
		SameSite: http.SameSiteLaxMode,
	}
	return c.String()
}
