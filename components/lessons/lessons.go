// components/lessons/lessons.go
//
// Lesson page: video player, description, module outline, and the
// mark-as-viewed ping the player fires when playback ends.
//
// Routes (mounted under /app)
//   GET  /lessons/{lessonID}         – render the lesson page.
//   POST /lessons/{lessonID}/viewed  – proxy mark-as-viewed, 204 on success.
//
//------------------------------------------------------------------------------

package lessons

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

// LessonData mirrors the backend's lesson page payload.
type LessonData struct {
	ID              string         `json:"id"`
	CourseName      string         `json:"courseName"`
	Name            string         `json:"name"`
	ModuleName      string         `json:"moduleName"`
	VideoURL        string         `json:"videoUrl"`
	NextLessonID    string         `json:"nextLessonId"`
	InstructorName  string         `json:"instructorName"`
	LessonsWatched  int            `json:"lessonsWatched"`
	LessonsTotal    int            `json:"lessonsTotal"`
	Progress        float64        `json:"progress"`
	Duration        string         `json:"duration"`
	LongDescription string         `json:"longDescription"`
	IsWatched       bool           `json:"isWatched"`
	Modules         []LessonModule `json:"modules"`
}

// LessonModule groups sibling lessons in the sidebar outline.
type LessonModule struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Lessons []LessonItem `json:"lessons"`
}

// LessonItem is one sidebar row.  Duration may be empty.
type LessonItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Duration  string `json:"duration"`
	IsWatched bool   `json:"isWatched"`
}

/*──────────────────────────── component ────────────────────────────────────*/

var _ component.Component = (*Component)(nil)

// Component renders lesson pages and records completions.
type Component struct {
	api *api.Client
}

// New wires the component with the proxy client.
func New(client *api.Client) *Component {
	return &Component{api: client}
}

// Name returns the canonical component key.
func (c *Component) Name() string { return "lessons" }

// Area returns AreaApp; every route needs a signed-in user.
func (c *Component) Area() component.Area { return component.AreaApp }

// Routes registers the page endpoints.
func (c *Component) Routes(r chi.Router) {
	r.Get("/lessons/{lessonID}", c.handleLesson)
	r.Post("/lessons/{lessonID}/viewed", c.handleViewed)
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleLesson(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lessonID")
	if _, err := uuid.Parse(lessonID); err != nil {
		http.NotFound(w, r)
		return
	}

	lesson, err := api.Fetch[LessonData](r.Context(), c.api, "/lessons/"+lessonID, r)
	if err != nil {
		web.RedirectBackendFailure(w, r, err)
		return
	}

	vctx := web.NewContext(r)
	vctx.Head.SetTitle(lesson.Name + " · " + lesson.CourseName)
	data := map[string]any{
		"Ctx":    vctx,
		"Lesson": lesson,
	}
	if err := view.Render(vctx, w, "lessons", "lesson", data, view.CacheDefault); err != nil {
		zap.S().Errorw("render", "template", "lesson", "err", err)
	}
}

// handleViewed is hit by the player when playback finishes.  The backend
// replies 204; so do we.  Failures still return JSON-free status codes
// because the caller is fetch(), not a browser navigation.
func (c *Component) handleViewed(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lessonID")
	if _, err := uuid.Parse(lessonID); err != nil {
		http.NotFound(w, r)
		return
	}

	_, err := api.Fetch[struct{}](r.Context(), c.api, "/lessons/"+lessonID+"/mark-as-viewed", r,
		api.WithMethod(http.MethodPost))
	if err != nil {
		web.RedirectBackendFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
