// internal/view/render.go
//
// Central view engine: template lookup, func-map injection, and an LRU of
// parsed *template.Template sets.
//
// Public helpers
// --------------
//   - Render         – write rendered HTML to an http.ResponseWriter.
//   - RenderToString – return template.HTML (e-mails, fragments).
//
// Templates live under components/<comp>/templates/<name>.html relative to
// the application root set via SetRoot.  All templates in the same
// directory are parsed as one set so sub-templates ({{ template "row" . }})
// work out-of-the-box.
//
// execName() chooses the best template to execute:
//   - If the set contains "<name>.html", we run that (file has no define).
//   - Else we fall back to "<name>" (root template defined via {{ define }}).
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yanizio/reset/internal/cache"
	"github.com/yanizio/reset/internal/web"
)

//
// cache definitions
//

// CachePolicy hints how the caller wants this template cached.
type CachePolicy int

const (
	CacheDefault CachePolicy = iota // parse once, reuse
	CacheSkip                       // never cache (pages embedding CSRF tokens)
)

// Parsed template sets; tweak capacity when perf-testing.
var (
	tmplMu  sync.Mutex
	tmplLRU = cache.New[string, *template.Template](256)
)

// root is the directory containing components/.  Set once from main.
var root = "."

// SetRoot points the engine at the application root.  Call before the
// first Render.
func SetRoot(dir string) { root = dir }

//
// public helpers
//

// Render executes the template set and streams it to w.
//
// We first load (or parse) the appropriate template set, then execute the
// concrete template determined by execName().  Either a plain file
// "login.html" with no {{ define }} block, or a file wrapping markup in
// {{ define "login" }} … {{ end }}, works; developers choose per component.
func Render(ctx *web.Context, w http.ResponseWriter, comp, name string, data any, policy CachePolicy) error {
	t, err := load(ctx, comp, name, policy)
	if err != nil {
		return err
	}
	return t.ExecuteTemplate(w, execName(t, name), data)
}

// RenderToString executes and returns HTML.  It mirrors Render, but writes
// to a buffer instead of w.
func RenderToString(ctx *web.Context, comp, name string, data any) (template.HTML, error) {
	t, err := load(ctx, comp, name, CacheDefault)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, execName(t, name), data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

//
// internal: load
//

// load finds and (if necessary) parses the template set for the given
// component and base name, obeying the provided cache policy.
func load(ctx *web.Context, comp, name string, policy CachePolicy) (*template.Template, error) {
	key := strings.Join([]string{comp, name}, "::")

	if policy != CacheSkip {
		tmplMu.Lock()
		v, ok := tmplLRU.Get(key)
		tmplMu.Unlock()
		if ok {
			return v, nil
		}
	}

	base := filepath.Join(root, "components", comp, "templates", name+".html")
	if _, err := os.Stat(base); err != nil {
		return nil, err
	}

	// Parse all *.html in the same directory so sub-templates work.
	pattern := filepath.Join(filepath.Dir(base), "*.html")

	t, err := template.New(name).Funcs(buildFuncMap(ctx)).ParseGlob(pattern)
	if err != nil {
		return nil, err
	}

	if policy != CacheSkip {
		tmplMu.Lock()
		tmplLRU.Add(key, t)
		tmplMu.Unlock()
	}
	return t, nil
}

//
// func-map builders
//

func buildFuncMap(_ *web.Context) template.FuncMap {
	fm := template.FuncMap{
		"dict": dict,
	}
	for k, v := range uaFuncMap() { // UA helpers (browser/os parsing)
		fm[k] = v
	}
	return fm
}

//
// helpers
//

// execName picks the template name to execute.
//
// Priority:
//  1. If the set has "<name>.html" (file-based template), run that.
//  2. Otherwise, fall back to "<name>" (root template defined in code).
func execName(t *template.Template, name string) string {
	if tmpl := t.Lookup(name + ".html"); tmpl != nil {
		return name + ".html"
	}
	return name
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}
