// internal/view/uahelpers.go
//
// User-Agent-related template helpers.  Kept in the view package so all
// view concerns live under one directory.  Every helper tolerates a nil
// Info pointer, which happens when the enrichment middleware is skipped
// (unit tests, health probes).
package view

import (
	"html/template"

	"github.com/yanizio/reset/internal/requestinfo"
	"github.com/yanizio/reset/internal/web"
)

// uaFuncMap returns helpers keyed off *web.Context.
func uaFuncMap() template.FuncMap {
	return template.FuncMap{
		"browser":        func(c *web.Context) string { return ua(c).Browser },
		"browserVersion": func(c *web.Context) string { return ua(c).Version },
		"os":             func(c *web.Context) string { return ua(c).OS },
		"osVersion":      func(c *web.Context) string { return ua(c).OSVersion },
		"device":         func(c *web.Context) string { return ua(c).Device },
		"platform":       func(c *web.Context) string { return ua(c).Platform },
		"isBot":          func(c *web.Context) bool { return ua(c).IsBot },
	}
}

// ua returns the parsed UA struct, or a zero value when enrichment never ran.
func ua(c *web.Context) requestinfo.UA {
	if c == nil || c.Info == nil {
		return requestinfo.UA{}
	}
	return c.Info.UA
}
