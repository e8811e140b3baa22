package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-portal/internal/api/http/handlers"
	"github.com/spec-kit/auth-portal/internal/session"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Pages   *Handler
	Session *session.Middleware
}

// RegisterRoutes wires portal routes. Page paths are matched by the portal router,
// so fiber only forwards every GET and POST to it.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	pages := app.Group("", cfg.Session.Handle)
	pages.Post("/logout", cfg.Pages.Logout)
	pages.Get("/*", cfg.Pages.Show)
	pages.Post("/*", cfg.Pages.Submit)
}
