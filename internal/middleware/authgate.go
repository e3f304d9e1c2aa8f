// internal/middleware/authgate.go
//
// Authentication gate for the /app router group.
//
// The gate decrypts the session cookie on every request.  When the session
// carries a user with an access token, the user is stored in the request
// context for handlers and templates; otherwise the visitor is bounced to
// the login page.  Token freshness is NOT checked here.  A stale token
// surfaces as a 401 from the course backend, and the calling handler
// redirects through /logout to destroy the cookie.

package middleware

import (
	"net/http"

	"github.com/yanizio/reset/internal/session"
	"github.com/yanizio/reset/internal/web"
)

// RequireUser guards a router group behind a live session.
func RequireUser(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := store.FromRequest(r)
			user, ok := sess.User()
			if !ok {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
			next.ServeHTTP(w, r.WithContext(web.WithUser(r.Context(), user)))
		})
	}
}
