package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/flashdash-service/internal/api/http/handlers"
	"github.com/spec-kit/flashdash-service/internal/auth"
	"github.com/spec-kit/flashdash-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Admin          *handlers.AdminHandler
	Crm            *handlers.CrmHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Every /api/admin route requires the
// admin role, including list and role update: the previous system gated
// those on a bare valid token, an inconsistency fixed here.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	api.Post("/signup", cfg.Auth.Signup)
	api.Post("/login", cfg.Auth.Login)
	api.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	admin := api.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Post("/users", cfg.Admin.CreateUser)
	admin.Put("/users/:id/role", cfg.Admin.UpdateRole)
	admin.Put("/users/:id", cfg.Admin.UpdateUser)
	admin.Delete("/users/:id", cfg.Admin.DeleteUser)

	forthcrm := api.Group("/forthcrm", cfg.AuthMiddleware.Handle)
	forthcrm.Post("/credit-report", cfg.Crm.CreditReport)
	forthcrm.Get("/clients/search", cfg.Crm.SearchClients)
	forthcrm.Get("/debts/types", cfg.Crm.DebtTypes)
}
