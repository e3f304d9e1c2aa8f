// internal/web/failure.go
//
// Shared mapping from proxy errors to HTTP responses.  Every page behind
// the auth gate follows the same rules, so the mapping lives here instead
// of being repeated per component:
//
//   ErrUnauthenticated → 302 /login   (no cookie at all; gate race)
//   ErrNotAuthorized   → 302 /logout  (stale token; destroy, then login)
//   BackendError 404   → 404          (entity genuinely absent)
//   anything else      → 502          (backend or transport failure)
//
// The not-authorized case deliberately routes through /logout rather than
// straight to /login.  Redirecting to /login with the dead cookie intact
// would loop: the gate sees a user, the page calls the backend, the
// backend says 401, repeat.  Destroying the cookie first breaks the cycle.

package web

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/reset/internal/api"
)

// RedirectBackendFailure writes the appropriate response for a Fetch error.
func RedirectBackendFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, api.ErrUnauthenticated):
		http.Redirect(w, r, "/login", http.StatusFound)

	case errors.Is(err, api.ErrNotAuthorized):
		http.Redirect(w, r, "/logout", http.StatusFound)

	default:
		var be *api.BackendError
		if errors.As(err, &be) && be.Status == http.StatusNotFound {
			http.NotFound(w, r)
			return
		}
		zap.S().Warnw("backend failure", "path", r.URL.Path, "err", err)
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
	}
}
