// components/courses/courses.go
//
// Course page: proxies the per-user course view from the backend and
// renders title, instructor, progress, and the section/lesson outline.
//
// Routes (mounted under /app)
//   GET /             – redirect to the default course.
//   GET /courses/{courseID}
//
//------------------------------------------------------------------------------

package courses

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yanizio/reset/internal/api"
	"github.com/yanizio/reset/internal/component"
	"github.com/yanizio/reset/internal/view"
	"github.com/yanizio/reset/internal/web"
)

/*──────────────────────────── backend DTOs ─────────────────────────────────*/

// Course mirrors the backend's per-user course payload.
type Course struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Instructor string         `json:"instructor"`
	Progress   CourseProgress `json:"progress"`
	Sections   []Section      `json:"sections"`
}

// CourseProgress summarises completion across the whole course.
type CourseProgress struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Section groups lessons under a heading.
type Section struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Lessons []Lesson `json:"lessons"`
}

// Lesson is one row of the course outline.  Status is the backend's
// wording: "completed" or "pending".
type Lesson struct {
	ID          string `json:"id"`
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
	Instructor  string `json:"instructor"`
	Status      string `json:"status"`
	Thumbnail   string `json:"thumbnail"`
}

// Completed reports whether the lesson row shows the check mark.
func (l Lesson) Completed() bool { return l.Status == "completed" }

/*──────────────────────────── component ────────────────────────────────────*/

var _ component.Component = (*Component)(nil)

// Component renders the course outline page.
type Component struct {
	api             *api.Client
	defaultCourseID string
}

// New wires the component with the proxy client and default course.
func New(client *api.Client, defaultCourseID string) *Component {
	return &Component{api: client, defaultCourseID: defaultCourseID}
}

// Name returns the canonical component key.
func (c *Component) Name() string { return "courses" }

// Area returns AreaApp; every route needs a signed-in user.
func (c *Component) Area() component.Area { return component.AreaApp }

// Routes registers the page endpoints.
func (c *Component) Routes(r chi.Router) {
	r.Get("/", c.redirectDefault)
	r.Get("/courses/{courseID}", c.handleCourse)
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) redirectDefault(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/app/courses/"+c.defaultCourseID, http.StatusFound)
}

func (c *Component) handleCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if _, err := uuid.Parse(courseID); err != nil {
		http.NotFound(w, r)
		return
	}

	course, err := api.Fetch[Course](r.Context(), c.api, "/courses/user/"+courseID, r)
	if err != nil {
		web.RedirectBackendFailure(w, r, err)
		return
	}

	vctx := web.NewContext(r)
	vctx.Head.SetTitle(course.Title)
	data := map[string]any{
		"Ctx":    vctx,
		"Course": course,
	}
	if err := view.Render(vctx, w, "courses", "course", data, view.CacheDefault); err != nil {
		zap.S().Errorw("render", "template", "course", "err", err)
	}
}
