// internal/api/client.go
//
// Authenticated fetch proxy.
//
// Context
//   Every page loader and action talks to the backend API through this
//   client.  It reads the access token out of the request's session
//   cookie, attaches the bearer header, issues exactly one HTTP call, and
//   classifies the answer into the taxonomy in errors.go.  There are no
//   retries, no circuit breaking, and no caching; one browser request maps
//   to at most a handful of sequential backend calls.
//
// Classification
//   401                  → ErrNotAuthorized, body ignored.
//   other non-2xx        → *BackendError with "detail"/"message" from the
//                          JSON body, or a status-code fallback string.
//   204                  → success with the zero value, body never read.
//   2xx, unparsable body → success with the zero value.  "No body" and
//                          "unparsable body" are treated identically.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/reset/internal/metrics"
	"github.com/yanizio/reset/internal/session"
)

// Client issues backend calls on behalf of the current user.  Construct
// one in main and inject it into page components.
type Client struct {
	base     string
	http     *http.Client
	sessions *session.Store
}

// New returns a Client rooted at base (no trailing slash).  hc may be nil,
// in which case http.DefaultClient is used.
func New(base string, sessions *session.Store, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: base, http: hc, sessions: sessions}
}

//
// ── Call options ────────────────────────────────────────────────────────────
//

type callOptions struct {
	method  string
	body    io.Reader
	rawBody bool // multipart or similar; suppress the JSON Content-Type
	headers map[string]string
}

// Option tweaks a single backend call.
type Option func(*callOptions) error

// WithMethod overrides the default GET.
func WithMethod(m string) Option {
	return func(o *callOptions) error { o.method = m; return nil }
}

// WithJSON marshals v as the request body.  The default
// Content-Type: application/json applies.
func WithJSON(v any) Option {
	return func(o *callOptions) error {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		o.body = bytes.NewReader(b)
		return nil
	}
}

// WithRawBody sends body verbatim under the given Content-Type.  Used for
// multipart uploads, where the transport-chosen boundary lives inside the
// Content-Type and the JSON default must not apply.
func WithRawBody(contentType string, body io.Reader) Option {
	return func(o *callOptions) error {
		o.body = body
		o.rawBody = true
		if contentType != "" {
			if o.headers == nil {
				o.headers = make(map[string]string, 1)
			}
			o.headers["Content-Type"] = contentType
		}
		return nil
	}
}

// WithHeader sets a header on the outgoing call.  Caller-supplied headers
// override the bearer and Content-Type defaults.
func WithHeader(key, val string) Option {
	return func(o *callOptions) error {
		if o.headers == nil {
			o.headers = make(map[string]string, 1)
		}
		o.headers[key] = val
		return nil
	}
}

//
// ── Fetch ───────────────────────────────────────────────────────────────────
//

// Fetch performs an authenticated backend call and decodes the 2xx JSON
// body into T.  incoming supplies the session cookie.  See the file
// header for the classification rules.
func Fetch[T any](ctx context.Context, c *Client, path string, incoming *http.Request, opts ...Option) (T, error) {
	var zero T

	co := callOptions{method: http.MethodGet}
	for _, opt := range opts {
		if err := opt(&co); err != nil {
			return zero, err
		}
	}

	// Session first: no token means no network call at all.
	sess := c.sessions.FromRequest(incoming)
	user, ok := sess.User()
	if !ok {
		metrics.BackendRequestsTotal.WithLabelValues("unauthenticated").Inc()
		return zero, ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, co.method, c.base+path, co.body)
	if err != nil {
		return zero, fmt.Errorf("build backend request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+user.AccessToken)
	if !co.rawBody {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range co.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues("transport_error").Inc()
		return zero, fmt.Errorf("backend %s %s: %w", co.method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		metrics.BackendRequestsTotal.WithLabelValues("unauthorized").Inc()
		return zero, ErrNotAuthorized

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		metrics.BackendRequestsTotal.WithLabelValues("backend_error").Inc()
		return zero, &BackendError{
			Status:  resp.StatusCode,
			Message: errorMessage(resp.Body, resp.StatusCode),
		}

	case resp.StatusCode == http.StatusNoContent:
		metrics.BackendRequestsTotal.WithLabelValues("empty").Inc()
		return zero, nil
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		// Absent and unparsable bodies are both "empty success."
		metrics.BackendRequestsTotal.WithLabelValues("empty").Inc()
		zap.S().Debugw("backend body not parsed", "path", path, "err", err)
		return zero, nil
	}
	metrics.BackendRequestsTotal.WithLabelValues("ok").Inc()
	return out, nil
}

// errorMessage extracts "detail" or "message" from a JSON error body,
// falling back to a status-code string.
func errorMessage(body io.Reader, status int) string {
	var eb struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(body).Decode(&eb); err == nil {
		if eb.Detail != "" {
			return eb.Detail
		}
		if eb.Message != "" {
			return eb.Message
		}
	}
	return fallbackMessage(status)
}
