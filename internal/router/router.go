// Package router maps portal paths to pages and renders them.
package router

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spec-kit/auth-portal/internal/submit"
)

// Page identifies a top-level component.
type Page string

const (
	PageRegistration Page = "registration"
	PageLogin        Page = "login"
	PageSuccess      Page = "success"
	PageDashboard    Page = "dashboard"
)

// Variant returns the submission flavor for form pages.
func (p Page) Variant() (submit.Variant, bool) {
	switch p {
	case PageRegistration:
		return submit.Registration, true
	case PageLogin:
		return submit.Login, true
	default:
		return submit.Variant{}, false
	}
}

// ParsePage maps the configured root form name to a page.
func ParsePage(name string) (Page, error) {
	switch name {
	case "register", string(PageRegistration):
		return PageRegistration, nil
	case "login":
		return PageLogin, nil
	default:
		return "", fmt.Errorf("router: unknown form %q", name)
	}
}

// ErrNoRoute is returned when a path has no exact match.
var ErrNoRoute = errors.New("router: no route")

// Route binds one path to one page.
type Route struct {
	Path string
	Page Page
	// External, when set, is where the route sends the browser instead of rendering.
	External string
}

// Router resolves paths by exact match only. There are no wildcards, parameters or guards.
type Router struct {
	routes map[string]Route
}

// New builds a router from routes. Later routes replace earlier ones with the same path.
func New(routes ...Route) *Router {
	table := make(map[string]Route, len(routes))
	for _, r := range routes {
		table[r.Path] = r
	}
	return &Router{routes: table}
}

// Default builds the portal table with rootForm mounted at "/".
func Default(rootForm Page, dashboardURL string) *Router {
	return New(
		Route{Path: "/", Page: rootForm},
		Route{Path: "/register", Page: PageRegistration},
		Route{Path: "/login", Page: PageLogin},
		Route{Path: submit.TargetSuccess, Page: PageSuccess},
		Route{Path: submit.TargetDashboard, Page: PageDashboard, External: dashboardURL},
	)
}

// Resolve looks up path.
func (r *Router) Resolve(path string) (Route, bool) {
	route, ok := r.routes[path]
	return route, ok
}

// Navigate resolves a navigation request, failing with ErrNoRoute for unmapped paths.
func (r *Router) Navigate(path string) (Route, error) {
	route, ok := r.Resolve(path)
	if !ok {
		return Route{}, fmt.Errorf("%w: %s", ErrNoRoute, path)
	}
	return route, nil
}

// Routes lists the table sorted by path.
func (r *Router) Routes() []Route {
	out := make([]Route, 0, len(r.routes))
	for _, route := range r.routes {
		out = append(out, route)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
