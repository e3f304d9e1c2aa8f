// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name>.  Components are
// constructed in cmd/web with their dependencies, then handed to
// Register().  The router mounts every component's routes via
// Register(chi.Router), grouped by Area: public components sit at the
// site root, app components live behind the auth gate.

package component

import (
	"sync"

	"github.com/go-chi/chi/v5"
)

// Area decides which router group a component's routes attach to.
type Area int

const (
	// AreaPublic routes are reachable without a session (login, logout,
	// the landing redirect).
	AreaPublic Area = iota
	// AreaApp routes require an authenticated user and mount under /app.
	AreaApp
)

// Component contract.
//
// Routes should register BOTH page and API endpoints on r, e.g.:
//
//	func (c *Courses) Routes(r chi.Router) {
//	    r.Get("/courses/{courseID}", c.getCourse)
//	    r.Post("/lessons/{lessonID}/viewed", c.postViewed)
//	}
type Component interface {
	Name() string
	Area() Area
	Routes(r chi.Router)
}

var (
	mu       sync.RWMutex
	registry []Component
)

// Register appends a component.  Call order is mount order.
func Register(c Component) {
	mu.Lock()
	registry = append(registry, c)
	mu.Unlock()
}

// ByArea returns registered components for one area, in registration order.
func ByArea(a Area) []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		if c.Area() == a {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears the registry.  Tests only.
func Reset() {
	mu.Lock()
	registry = nil
	mu.Unlock()
}
