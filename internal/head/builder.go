// internal/head/builder.go
//
// The Builder collects everything that should appear inside a page's
// <head> element.  It is scoped to a single request.  Handlers push tags
// into the builder, then the page template decides where to emit each
// slice.
//
// Features
// --------
//   - SetTitle           – single <title> tag (last call wins).
//   - Meta, Link, Script – arbitrary tags with deduplication.
//   - Render helpers     – concat methods that return template.HTML.
package head

import (
	"html/template"
	"strings"
	"sync"
)

// Builder is not safe for concurrent writes from multiple goroutines, but
// typical use is one goroutine per request, so a simple mutex is enough.
type Builder struct {
	mu sync.Mutex

	title string

	metas   []string
	links   []string
	scripts []string

	// seen tracks raw tags for deduplication.
	seen map[string]struct{}
}

func New() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

// SetTitle overrides the page <title>.  The last caller wins.
func (b *Builder) SetTitle(t string) {
	b.mu.Lock()
	b.title = t
	b.mu.Unlock()
}

// Title returns a fully formed <title> tag or an empty string.
func (b *Builder) Title() template.HTML {
	if b.title == "" {
		return ""
	}
	return template.HTML("<title>" + template.HTMLEscapeString(b.title) + "</title>")
}

// Meta appends a raw <meta …> tag once.
func (b *Builder) Meta(tag string) { b.add(&b.metas, tag) }

// Link appends a raw <link …> tag once.
func (b *Builder) Link(tag string) { b.add(&b.links, tag) }

// Script appends a raw <script …> tag once.
func (b *Builder) Script(tag string) { b.add(&b.scripts, tag) }

// Metas, Links, and Scripts return the collected tags joined by newlines.
func (b *Builder) Metas() template.HTML   { return join(b.metas) }
func (b *Builder) Links() template.HTML   { return join(b.links) }
func (b *Builder) Scripts() template.HTML { return join(b.scripts) }

func (b *Builder) add(dst *[]string, tag string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.seen[tag]; dup {
		return
	}
	b.seen[tag] = struct{}{}
	*dst = append(*dst, tag)
}

func join(tags []string) template.HTML {
	return template.HTML(strings.Join(tags, "\n"))
}
