// internal/api/errors.go
//
// Error taxonomy for backend calls.
//
// Context
//   Callers discriminate failures with errors.Is / errors.As rather than
//   type switches on concrete handler errors:
//
//     • ErrUnauthenticated – no access token in the local session; the
//       request never reached the network.
//     • ErrNotAuthorized   – the backend answered 401; the uniform policy
//       is destroy-session-and-redirect-to-logout.
//     • *BackendError      – any other non-2xx answer, carrying the
//       human-readable message extracted from the JSON body when present.
//
//   Transport failures are wrapped with %w and carry neither sentinel.
//
//------------------------------------------------------------------------------

package api

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated reports a missing access token.  It is a local,
// session-layer condition; no backend call was made.
var ErrUnauthenticated = errors.New("no access token available")

// ErrNotAuthorized reports a 401 from the backend.  Callers respond by
// destroying the session and redirecting to the login route.
var ErrNotAuthorized = errors.New("user is not authorized")

// BackendError is any non-2xx, non-401 backend answer.
type BackendError struct {
	Status  int    // HTTP status code
	Message string // extracted from JSON "detail"/"message", or fallback
}

func (e *BackendError) Error() string { return e.Message }

// fallbackMessage embeds the numeric status when no message field parses.
func fallbackMessage(status int) string {
	return fmt.Sprintf("HTTP error! status: %d", status)
}
