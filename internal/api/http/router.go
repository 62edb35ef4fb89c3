package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/lending-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Registry *handlers.RegistryHandler
	Loans    *handlers.LoansHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/items", cfg.Registry.RegisterItem)
	app.Get("/items/:id", cfg.Registry.GetItem)
	app.Post("/patrons", cfg.Registry.RegisterPatron)
	app.Get("/patrons/:id", cfg.Registry.GetPatron)
	app.Post("/staff", cfg.Registry.RegisterStaff)
	app.Get("/staff/:id", cfg.Registry.GetStaff)

	loans := app.Group("/loans")
	loans.Get("", cfg.Loans.List)
	loans.Post("", cfg.Loans.Borrow)
	loans.Get("/open", cfg.Loans.ListOpen)
	loans.Post("/:id/return", cfg.Loans.ReturnLoan)

	app.Post("/returns", cfg.Loans.ReturnItem)
	app.Get("/status", cfg.Loans.Status)
}
