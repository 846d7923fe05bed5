package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-triage/internal/api/http/handlers"
	"github.com/spec-kit/support-triage/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Triage         *handlers.TriageHandler
	Tickets        *handlers.TicketsHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.AuthMiddleware.Handle, auth.RequireKind(auth.KindOperator), cfg.Metrics.Snapshot)

	v1 := app.Group("/v1", cfg.AuthMiddleware.Handle, auth.RequireKind())
	v1.Post("/issues", cfg.Triage.SubmitIssue)
	v1.Post("/offers/:offerID/escalate", cfg.Triage.Escalate)
	v1.Get("/tickets/:ticketID/status", cfg.Tickets.Status)
	v1.Get("/users/:requesterID/tickets", cfg.Tickets.List)
	v1.Get("/users/:requesterID/tickets/latest/status", cfg.Tickets.LatestStatus)
}
