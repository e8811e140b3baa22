package router

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/spec-kit/auth-portal/internal/form"
	"github.com/spec-kit/auth-portal/internal/submit"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTemplates = map[Page]string{
	PageRegistration: "templates/form.html",
	PageLogin:        "templates/form.html",
	PageSuccess:      "templates/success.html",
	PageDashboard:    "templates/dashboard.html",
}

// View is everything a page render depends on.
type View struct {
	Route Route
	Form  form.State
	State submit.State
	// SignedIn reports whether the session holds a token. It is informational only.
	SignedIn bool
}

// Variant returns the form flavor for the routed page.
func (v View) Variant() submit.Variant {
	variant, _ := v.Route.Page.Variant()
	return variant
}

// Title is the document title.
func (v View) Title() string {
	switch v.Route.Page {
	case PageSuccess:
		return "Registration Successful"
	case PageDashboard:
		return "Dashboard"
	default:
		return v.Variant().Title
	}
}

// Renderer turns a View into HTML. Rendering is a pure function of the View.
type Renderer struct {
	pages map[Page]*template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	base, err := template.ParseFS(templatesFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("router: parse layout: %w", err)
	}
	pages := make(map[Page]*template.Template, len(pageTemplates))
	for page, file := range pageTemplates {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("router: clone layout: %w", err)
		}
		if _, err := clone.ParseFS(templatesFS, file); err != nil {
			return nil, fmt.Errorf("router: parse %s: %w", file, err)
		}
		pages[page] = clone
	}
	return &Renderer{pages: pages}, nil
}

// Render writes the page for v.Route.
func (r *Renderer) Render(w io.Writer, v View) error {
	tmpl, ok := r.pages[v.Route.Page]
	if !ok {
		return fmt.Errorf("%w: no template for page %q", ErrNoRoute, v.Route.Page)
	}
	if v.State == "" {
		v.State = submit.StateIdle
	}
	return tmpl.ExecuteTemplate(w, "layout", v)
}
