package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Accounts *handlers.AccountsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	accounts := app.Group("/accounts")
	accounts.Get("/", cfg.Accounts.List)
	accounts.Post("/", cfg.Accounts.Create)
	accounts.Get("/:id", cfg.Accounts.Get)
	accounts.Put("/:id", cfg.Accounts.Update)
	accounts.Delete("/:id", cfg.Accounts.Delete)
	accounts.Put("/:id/password", cfg.Accounts.ChangePassword)
}
