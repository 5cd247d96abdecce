package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	infraservices "github.com/takutakahashi/seo-agent-proxy/internal/infrastructure/services"
	"github.com/takutakahashi/seo-agent-proxy/internal/interfaces/presenters"
	"github.com/takutakahashi/seo-agent-proxy/internal/usecases/ports/services"
	"github.com/takutakahashi/seo-agent-proxy/pkg/agent"
	"github.com/takutakahashi/seo-agent-proxy/pkg/config"
	"github.com/takutakahashi/seo-agent-proxy/pkg/utils"
)

// Server represents the Submission Gateway HTTP server
type Server struct {
	config       *config.Config
	echo         *echo.Echo
	orchestrator services.OrchestratorService
	router       *Router
}

// NewServer creates a new server instance. When orchestrator is nil an HTTP
// orchestrator client is built from cfg.
func NewServer(cfg *config.Config, orchestrator services.OrchestratorService) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if cfg.MaxBodySize == "" {
		cfg.MaxBodySize = config.DefaultMaxBodySize
	}
	if orchestrator == nil {
		orchestrator = infraservices.NewHTTPOrchestratorService(
			cfg.Orchestrator.URL,
			utils.HTTPClientConfig{Timeout: cfg.Orchestrator.Timeout},
		)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Disable Echo's default logger and use custom logging
	e.Logger.SetOutput(io.Discard)
	e.HTTPErrorHandler = envelopeErrorHandler(presenters.NewEnvelopePresenter(), cfg.MaxBodySize)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORS.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
		MaxAge:       86400,
	}))
	e.Use(middleware.BodyLimit(cfg.MaxBodySize))
	e.Use(requestLogger(cfg.Verbose))

	s := &Server{
		config:       cfg,
		echo:         e,
		orchestrator: orchestrator,
	}
	s.router = NewRouter(e, s)
	s.router.RegisterRoutes()

	log.Printf("[SERVER] Forwarding agent requests to %s (timeout %s)", orchestrator.BaseURL(), cfg.Orchestrator.Timeout)
	return s
}

// envelopeErrorHandler answers errors raised outside the gateway handlers
// (body limit, unknown route, recovered panic) with a ResponseEnvelope
func envelopeErrorHandler(presenter *presenters.EnvelopePresenter, maxBodySize string) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := http.StatusText(status)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			message = http.StatusText(status)
			if m, ok := he.Message.(string); ok && m != "" {
				message = m
			}
		}

		code := agent.CodeInvalidRequest
		switch {
		case status == http.StatusRequestEntityTooLarge:
			message = fmt.Sprintf("request body exceeds the %s limit", maxBodySize)
		case status >= http.StatusInternalServerError:
			code = agent.CodeInternalError
			message = http.StatusText(status)
			log.Printf("[SERVER] %s %s failed: %v", c.Request().Method, c.Request().URL.Path, err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = presenter.PresentError(c, status, code, message)
		}
		if err != nil {
			log.Printf("[SERVER] Failed to write error response: %v", err)
		}
	}
}

// requestLogger logs one line per request. Bodies are never logged since they
// carry the GitHub token.
func requestLogger(verbose bool) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  verbose,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if verbose {
				log.Printf("[HTTP] %s %s %d %s request_id=%s remote=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID, v.RemoteIP)
				return nil
			}
			log.Printf("[HTTP] %s %s %d %s request_id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	})
}

// Start listens on addr and blocks until the server stops
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// GetEcho returns the Echo instance for external access
func (s *Server) GetEcho() *echo.Echo {
	return s.echo
}

// GetConfig returns the server configuration
func (s *Server) GetConfig() *config.Config {
	return s.config
}
