package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/takutakahashi/seo-agent-proxy/internal/interfaces/presenters"
	"github.com/takutakahashi/seo-agent-proxy/internal/usecases/ports/services"
	"github.com/takutakahashi/seo-agent-proxy/pkg/agent"
)

// AgentController is the Submission Gateway: it relays configure, review
// and status calls to the orchestrator without inspecting payload fields
type AgentController struct {
	orchestrator services.OrchestratorService
	presenter    *presenters.EnvelopePresenter
}

// NewAgentController creates a new AgentController
func NewAgentController(orchestrator services.OrchestratorService) *AgentController {
	return &AgentController{
		orchestrator: orchestrator,
		presenter:    presenters.NewEnvelopePresenter(),
	}
}

// GetName returns the name of this controller for logging
func (c *AgentController) GetName() string {
	return "AgentController"
}

// RegisterRoutes mounts the gateway endpoints under g
func (c *AgentController) RegisterRoutes(g *echo.Group) {
	g.POST("/configure", c.Configure)
	g.POST("/review", c.Review)
	g.GET("/status", c.Status)
}

// Configure handles POST /api/agent/configure
func (c *AgentController) Configure(ctx echo.Context) error {
	return c.relayJSON(ctx, services.OrchestratorConfigurePath)
}

// Review handles POST /api/agent/review
func (c *AgentController) Review(ctx echo.Context) error {
	return c.relayJSON(ctx, services.OrchestratorReviewPath)
}

// Status handles GET /api/agent/status
func (c *AgentController) Status(ctx echo.Context) error {
	resp, err := c.orchestrator.Forward(ctx.Request().Context(), &services.ForwardRequest{
		Method:    http.MethodGet,
		Path:      services.OrchestratorStatusPath,
		RequestID: requestID(ctx),
	})
	c.logOutcome(ctx, services.OrchestratorStatusPath, resp, err)
	return c.presenter.Present(ctx, resp, err)
}

// relayJSON forwards the raw request body to path
func (c *AgentController) relayJSON(ctx echo.Context, path string) error {
	body, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			// body limit exceeded on a streamed request; the error handler answers
			return he
		}
		return c.presenter.PresentError(ctx, http.StatusBadRequest, agent.CodeInvalidRequest, "failed to read request body")
	}
	if len(bytes.TrimSpace(body)) == 0 || !json.Valid(body) {
		return c.presenter.PresentError(ctx, http.StatusBadRequest, agent.CodeInvalidRequest, "request body must be valid JSON")
	}

	resp, err := c.orchestrator.Forward(ctx.Request().Context(), &services.ForwardRequest{
		Method:    http.MethodPost,
		Path:      path,
		Body:      body,
		RequestID: requestID(ctx),
	})
	c.logOutcome(ctx, path, resp, err)
	return c.presenter.Present(ctx, resp, err)
}

// logOutcome records the result of a forward call; payloads are never logged
func (c *AgentController) logOutcome(ctx echo.Context, path string, resp *services.ForwardResponse, err error) {
	id := requestID(ctx)
	if err != nil {
		log.Printf("[GATEWAY] %s%s failed (request_id=%s): %v", c.orchestrator.BaseURL(), path, id, err)
		return
	}
	log.Printf("[GATEWAY] %s%s answered %d (request_id=%s)", c.orchestrator.BaseURL(), path, resp.StatusCode, id)
}

func requestID(ctx echo.Context) string {
	if id := ctx.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return ctx.Request().Header.Get(echo.HeaderXRequestID)
}
