package app

import (
	"log"

	"github.com/labstack/echo/v4"
	"github.com/takutakahashi/seo-agent-proxy/internal/interfaces/controllers"
)

// AgentAPIPrefix is where the gateway endpoints are mounted
const AgentAPIPrefix = "/api/agent"

// Router handles route registration and management
type Router struct {
	echo     *echo.Echo
	server   *Server
	handlers *HandlerRegistry
}

// HandlerRegistry contains all handlers
type HandlerRegistry struct {
	healthController *controllers.HealthController
	agentController  *controllers.AgentController
}

// NewRouter creates a new Router instance
func NewRouter(e *echo.Echo, server *Server) *Router {
	return &Router{
		echo:   e,
		server: server,
		handlers: &HandlerRegistry{
			healthController: controllers.NewHealthController(),
			agentController:  controllers.NewAgentController(server.orchestrator),
		},
	}
}

// RegisterRoutes registers all routes
func (r *Router) RegisterRoutes() {
	r.echo.GET("/health", r.handlers.healthController.HealthCheck)

	log.Printf("[ROUTES] Registering agent gateway endpoints under %s...", AgentAPIPrefix)
	r.handlers.agentController.RegisterRoutes(r.echo.Group(AgentAPIPrefix))
}
