// components/home/home.go
//
// Landing redirect.  The viewer has no home page of its own; the root URL
// simply forwards to the configured default course.  The auth gate on the
// /app group handles the not-signed-in case.
//
//------------------------------------------------------------------------------

package home

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/reset/internal/component"
)

var _ component.Component = (*Component)(nil)

// Component issues the root redirect.
type Component struct {
	defaultCourseID string
}

// New wires the component with the default course from configuration.
func New(defaultCourseID string) *Component {
	return &Component{defaultCourseID: defaultCourseID}
}

// Name returns the canonical component key.
func (c *Component) Name() string { return "home" }

// Area returns AreaPublic; the redirect itself needs no session.
func (c *Component) Area() component.Area { return component.AreaPublic }

// Routes registers the redirect.
func (c *Component) Routes(r chi.Router) {
	r.Get("/", c.redirect)
}

func (c *Component) redirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/app/courses/"+c.defaultCourseID, http.StatusFound)
}
