package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-portal/internal/api/http/handlers"
	"github.com/spec-kit/auth-portal/internal/auth"
	"github.com/spec-kit/auth-portal/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires the auth API routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	api := app.Group("/api")
	api.Post("/register", cfg.Users.Register)
	api.Post("/login", cfg.Users.Login)

	protected := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	protected.Post("/logout", cfg.Users.Logout)
	protected.Get("/protected", cfg.Users.Protected)
	protected.Get("/users", auth.RequireRole(domain.RoleAdmin), cfg.Users.List)
}
