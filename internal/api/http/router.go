package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/community-hub/internal/api/graph"
	"github.com/spec-kit/community-hub/internal/api/http/handlers"
	"github.com/spec-kit/community-hub/internal/session"
)

// RouteConfig bundles dependencies for route registration of one subgraph.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	GraphQL  *graph.Handler
	Sessions *session.Middleware
}

// RegisterRoutes wires HTTP routes. The session middleware runs on every
// /graphql request so each subgraph derives the caller identity itself; there
// is no shared verification service.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/graphql", cfg.Sessions.Handle, cfg.GraphQL.Handle)
}
