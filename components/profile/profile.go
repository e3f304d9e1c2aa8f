// components/profile/profile.go
//
// Profile page: shows and edits the signed-in user's backend profile.
//
// Routes (mounted under /app)
//   GET  /profile/me – proxy GET /users/me and render.
//   POST /profile/me – optional avatar upload (multipart, field "file" to
//                      /resources/upload-image), then the profile update as
//                      JSON to POST /users/me, then redirect (PRG).
//
//------------------------------------------------------------------------------

package profile

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/reset/internal/api"
	"github.com/yanizio/reset/internal/component"
	"github.com/yanizio/reset/internal/form"
	"github.com/yanizio/reset/internal/view"
	"github.com/yanizio/reset/internal/web"
)

// maxUploadBytes caps the in-memory portion of the multipart parse.
const maxUploadBytes = 10 << 20

/*──────────────────────────── backend DTOs ─────────────────────────────────*/

// Profile mirrors the backend's /users/me payload, both directions.
type Profile struct {
	CoverImageURL   string `json:"coverImageUrl,omitempty"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
	Name            string `json:"name,omitempty"`
	Location        string `json:"location,omitempty"`
	AboutMe         string `json:"aboutMe,omitempty"`
	PhoneNumber     string `json:"phoneNumber,omitempty"`
	Email           string `json:"email"`
	Instagram       string `json:"instagram"`
}

// uploadResponse is what /resources/upload-image returns for a stored file.
type uploadResponse struct {
	URL string `json:"url"`
}

/*──────────────────────────── component ────────────────────────────────────*/

var _ component.Component = (*Component)(nil)

// Component renders and updates the profile.
type Component struct {
	api *api.Client
}

// New wires the component with the proxy client.
func New(client *api.Client) *Component {
	return &Component{api: client}
}

// Name returns the canonical component key.
func (c *Component) Name() string { return "profile" }

// Area returns AreaApp; every route needs a signed-in user.
func (c *Component) Area() component.Area { return component.AreaApp }

// Routes registers the page endpoints.
func (c *Component) Routes(r chi.Router) {
	r.Get("/profile/me", c.handleProfileGET)
	r.Post("/profile/me", c.handleProfilePOST)
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleProfileGET(w http.ResponseWriter, r *http.Request) {
	prof, err := api.Fetch[Profile](r.Context(), c.api, "/users/me", r)
	if err != nil {
		web.RedirectBackendFailure(w, r, err)
		return
	}

	tok, err := form.GenerateToken()
	if err != nil {
		zap.S().Errorw("csrf token", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	vctx := web.NewContext(r)
	vctx.Head.SetTitle("Mi perfil")
	data := map[string]any{
		"Ctx":       vctx,
		"Profile":   prof,
		"CSRFToken": tok,
		"RenderTS":  strconv.FormatInt(time.Now().UnixMicro(), 10),
		"Updated":   r.URL.Query().Get("updated") == "1",
	}
	if err := view.Render(vctx, w, "profile", "profile", data, view.CacheSkip); err != nil {
		zap.S().Errorw("render", "template", "profile", "err", err)
	}
}

func (c *Component) handleProfilePOST(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	// Multipart text fields validate through the same YAML pipeline as the
	// urlencoded forms.
	clean, errs := form.ValidateForm("profile/edit", url.Values(r.MultipartForm.Value))
	if len(errs) > 0 {
		http.Error(w, errs[0].Message, http.StatusBadRequest)
		return
	}

	updated := Profile{
		Name:            stringField(clean, "name"),
		Location:        stringField(clean, "location"),
		AboutMe:         stringField(clean, "aboutMe"),
		PhoneNumber:     stringField(clean, "phoneNumber"),
		Email:           stringField(clean, "email"),
		Instagram:       stringField(clean, "instagram"),
		ProfileImageURL: stringField(clean, "profileImageUrl"),
		CoverImageURL:   stringField(clean, "coverImageUrl"),
	}

	// Optional avatar: forward the bytes to the backend's image store and
	// point the profile at the stored copy.
	if f, fh, err := r.FormFile("profileImageFile"); err == nil {
		defer f.Close()
		stored, err := c.uploadImage(r, f, fh.Filename)
		if err != nil {
			web.RedirectBackendFailure(w, r, err)
			return
		}
		if stored != "" {
			updated.ProfileImageURL = stored
		}
	}

	if _, err := api.Fetch[Profile](r.Context(), c.api, "/users/me", r,
		api.WithMethod(http.MethodPost), api.WithJSON(updated)); err != nil {
		web.RedirectBackendFailure(w, r, err)
		return
	}

	http.Redirect(w, r, "/app/profile/me?updated=1", http.StatusSeeOther)
}

// uploadImage re-wraps the browser's file part into a fresh multipart body
// with the single "file" field the backend expects.
func (c *Component) uploadImage(r *http.Request, f io.Reader, filename string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	res, err := api.Fetch[uploadResponse](r.Context(), c.api, "/resources/upload-image", r,
		api.WithMethod(http.MethodPost),
		api.WithRawBody(mw.FormDataContentType(), &buf))
	if err != nil {
		return "", err
	}
	return res.URL, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
