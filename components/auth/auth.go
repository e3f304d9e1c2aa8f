// components/auth/auth.go
//
// Authentication component: passwordless OTP login flow.
//
// Routes
//   GET  /login   – email entry page.
//   POST /login   – enrollment check + code delivery; advances to verify.
//   GET  /verify  – seven-digit code entry page (needs ?email=).
//   POST /verify  – code verification, or resend when _action=resend.
//   GET  /logout  – destroys the session cookie and returns to login.
//
// The component owns no flow state.  Which page the browser is on IS the
// state; every POST carries the email along in the form body.
//
//------------------------------------------------------------------------------

package auth

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/reset/internal/component"
	"github.com/yanizio/reset/internal/form"
	"github.com/yanizio/reset/internal/metrics"
	"github.com/yanizio/reset/internal/otp"
	"github.com/yanizio/reset/internal/session"
	"github.com/yanizio/reset/internal/view"
	"github.com/yanizio/reset/internal/web"
)

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component encapsulates the login, verify, and logout pages.
type Component struct {
	sessions *session.Store
	flow     *otp.Flow
}

// New wires the component with its dependencies.
func New(sessions *session.Store, flow *otp.Flow) *Component {
	return &Component{sessions: sessions, flow: flow}
}

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "auth" }

// Area returns AreaPublic; login pages must work without a session.
func (c *Component) Area() component.Area { return component.AreaPublic }

// Routes registers the page endpoints.
func (c *Component) Routes(r chi.Router) {
	r.Get("/login", c.handleLoginGET)
	r.Post("/login", c.handleLoginPOST)
	r.Get("/verify", c.handleVerifyGET)
	r.Post("/verify", c.handleVerifyPOST)
	r.Get("/logout", c.handleLogout)
}

/*──────────────────────────── page data ────────────────────────────────────*/

// pageData is handed to both auth templates.
type pageData struct {
	Ctx       *web.Context
	CSRFToken string
	RenderTS  string
	Email     string
	Errors    []form.ErrorField
	Notice    string
}

// newPageData stamps a fresh CSRF token and render timestamp.  A token
// failure means crypto/rand is broken, which is fatal for the request.
func newPageData(vctx *web.Context) (pageData, error) {
	tok, err := form.GenerateToken()
	if err != nil {
		return pageData{}, err
	}
	return pageData{
		Ctx:       vctx,
		CSRFToken: tok,
		RenderTS:  strconv.FormatInt(time.Now().UnixMicro(), 10),
	}, nil
}

var pageTitles = map[string]string{
	"login":  "Iniciar sesión",
	"verify": "Verificar código",
}

func (c *Component) renderPage(w http.ResponseWriter, r *http.Request, name string, mutate func(*pageData)) {
	vctx := web.NewContext(r)
	vctx.Head.SetTitle(pageTitles[name])
	// Sign-in pages carry one-time tokens; keep them out of indexes.
	vctx.Head.Meta(`<meta name="robots" content="noindex">`)
	pd, err := newPageData(vctx)
	if err != nil {
		zap.S().Errorw("csrf token", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if mutate != nil {
		mutate(&pd)
	}
	if err := view.Render(vctx, w, "auth", name, pd, view.CacheSkip); err != nil {
		zap.S().Errorw("render", "template", name, "err", err)
	}
}

/*──────────────────────────── Handlers ─────────────────────────────────────*/

func (c *Component) handleLoginGET(w http.ResponseWriter, r *http.Request) {
	// Already signed in → straight to the course.
	if _, ok := c.sessions.FromRequest(r).User(); ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	c.renderPage(w, r, "login", nil)
}

func (c *Component) handleLoginPOST(w http.ResponseWriter, r *http.Request) {
	data, err := form.HandleSubmit("auth/login", r)
	if err != nil {
		if form.IsValidationError(err) {
			c.renderPage(w, r, "login", func(pd *pageData) {
				pd.Errors = form.FieldsFromError(err)
				pd.Email = r.PostForm.Get("email")
			})
			return
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	email := data["email"].(string)
	if _, err := c.flow.SubmitEmail(r.Context(), email); err != nil {
		msg := "No pudimos enviar el código.  Inténtalo de nuevo."
		if errors.Is(err, otp.ErrNotEnrolled) {
			msg = "Correo no inscrito."
		} else {
			zap.S().Warnw("submit email", "err", err)
		}
		c.renderPage(w, r, "login", func(pd *pageData) {
			pd.Errors = []form.ErrorField{{Name: "email", Message: msg}}
			pd.Email = email
		})
		return
	}

	// Code is on its way; the verify page picks the email up from the
	// query string so a refresh never re-posts the login form.
	http.Redirect(w, r, "/verify?email="+url.QueryEscape(email), http.StatusSeeOther)
}

func (c *Component) handleVerifyGET(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	c.renderPage(w, r, "verify", func(pd *pageData) {
		pd.Email = email
	})
}

func (c *Component) handleVerifyPOST(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if r.PostForm.Get("_action") == "resend" {
		c.handleResend(w, r)
		return
	}

	data, err := form.HandleSubmit("auth/verify", r)
	if err != nil {
		if form.IsValidationError(err) {
			c.renderPage(w, r, "verify", func(pd *pageData) {
				pd.Errors = form.FieldsFromError(err)
				pd.Email = r.PostForm.Get("email")
			})
			return
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	email := data["email"].(string)
	code := otp.AssembleCode(r.PostForm)

	user, _, err := c.flow.SubmitCode(r.Context(), email, code)
	if err != nil {
		c.renderPage(w, r, "verify", func(pd *pageData) {
			pd.Errors = []form.ErrorField{{Name: "otp-0", Message: "Código inválido o vencido."}}
			pd.Email = email
		})
		return
	}

	sess := c.sessions.FromRequest(r)
	sess.SetUser(user)
	cookie, err := c.sessions.Commit(sess)
	if err != nil {
		zap.S().Errorw("commit session", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Set-Cookie", cookie)
	metrics.SessionsIssuedTotal.Inc()

	http.Redirect(w, r, "/app", http.StatusSeeOther)
}

func (c *Component) handleResend(w http.ResponseWriter, r *http.Request) {
	data, err := form.HandleSubmit("auth/resend", r)
	if err != nil {
		if form.IsValidationError(err) {
			c.renderPage(w, r, "verify", func(pd *pageData) {
				pd.Errors = form.FieldsFromError(err)
				pd.Email = r.PostForm.Get("email")
			})
			return
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	email := data["email"].(string)
	notice := "Código reenviado.  Revisa tu correo."
	if err := c.flow.Resend(r.Context(), email); err != nil {
		zap.S().Warnw("resend code", "err", err)
		notice = "No pudimos reenviar el código.  Inténtalo de nuevo."
	}
	c.renderPage(w, r, "verify", func(pd *pageData) {
		pd.Email = email
		pd.Notice = notice
	})
}

func (c *Component) handleLogout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Set-Cookie", c.sessions.Destroy())
	metrics.SessionsDestroyedTotal.Inc()
	http.Redirect(w, r, "/login", http.StatusFound)
}
