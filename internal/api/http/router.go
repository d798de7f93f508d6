package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-dashboard/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-dashboard/internal/auth"
	"github.com/spec-kit/helpdesk-dashboard/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	BasePath       string
	Health         *handlers.HealthHandler
	Metrics        *handlers.MetricsHandler
	Auth           *handlers.AuthHandler
	Dashboard      *handlers.DashboardHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	root := app.Group(cfg.BasePath)

	root.Get("/health/live", cfg.Health.Live)
	root.Get("/health/ready", cfg.Health.Ready)
	root.Get("/metrics", cfg.Metrics.Show)

	authGroup := root.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)

	api := root.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin, domain.RoleAgent))
	api.Get("/me", cfg.Auth.Me)
	api.Get("/status", cfg.Dashboard.Status)
	api.Put("/filters", cfg.Dashboard.UpdateFilters)
	api.Post("/refresh", cfg.Dashboard.Refresh)
	api.Post("/visibility", cfg.Dashboard.Visibility)

	api.Get("/dashboard", cfg.Dashboard.Dashboard)
	api.Get("/dashboard/kpi", cfg.Dashboard.KPI)
	api.Get("/dashboard/trends", cfg.Dashboard.Trends)
	api.Get("/dashboard/priorities", cfg.Dashboard.Priorities)
	api.Get("/dashboard/channels", cfg.Dashboard.Channels)
	api.Get("/dashboard/agents", cfg.Dashboard.Agents)

	api.Get("/tickets/recent", cfg.Dashboard.RecentTickets)
	api.Get("/tickets/mine", cfg.Dashboard.MyTickets)
	api.Get("/tickets/escalated", cfg.Dashboard.EscalatedTickets)

	api.Get("/notifications", cfg.Notifications.List)
	api.Post("/notifications/read", cfg.Notifications.MarkRead)
	api.Get("/notifications/history", cfg.Notifications.History)
	api.Delete("/notifications/:id", cfg.Notifications.Dismiss)
}
