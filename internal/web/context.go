// internal/web/context.go
//
// Per-request Context passed into templates and handlers, plus the
// user-in-context helpers the auth-gate middleware relies on.
//
// Usage
// -----
//	// Middleware attaches the authenticated user after reading the cookie.
//	ctx = web.WithUser(ctx, user)
//
//	// Handlers build a view Context per request.
//	vctx := web.NewContext(r)
//	view.Render(vctx, w, "courses", "course", data, view.CacheSkip)
//
// Notes
// -----
// • Oxford commas, two spaces after periods.

package web

import (
	"context"
	"net/http"

	"github.com/yanizio/reset/internal/head"
	"github.com/yanizio/reset/internal/requestinfo"
	"github.com/yanizio/reset/internal/session"
)

// Context is created once per request.
type Context struct {
	Request *http.Request
	Head    *head.Builder
	User    *session.User            // nil outside the authenticated area
	Info    *requestinfo.RequestInfo // nil when Enrich did not run
}

// NewContext initialises a Context with an empty head builder, pulling the
// user and request info out of the request's context when present.
func NewContext(r *http.Request) *Context {
	c := &Context{
		Request: r,
		Head:    head.New(),
		Info:    requestinfo.FromContext(r.Context()),
	}
	if u, ok := UserFrom(r.Context()); ok {
		c.User = &u
	}
	return c
}

// userKey is unexported to avoid context-key collisions.
type userKey struct{}

// WithUser returns a new context carrying the authenticated user.
func WithUser(ctx context.Context, u session.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFrom extracts the user from ctx.  ok is false when no user is set.
func UserFrom(ctx context.Context) (session.User, bool) {
	u, ok := ctx.Value(userKey{}).(session.User)
	return u, ok
}
