package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/takutakahashi/seo-agent-proxy/internal/usecases/ports/services"
	"github.com/takutakahashi/seo-agent-proxy/pkg/utils"
)

// maxResponseBytes caps how much of an orchestrator answer is buffered
const maxResponseBytes = 10 << 20

// HTTPOrchestratorService implements OrchestratorService over plain HTTP.
// It holds no per-request state and is safe for concurrent use.
type HTTPOrchestratorService struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPOrchestratorService creates a service for the orchestrator at baseURL
func NewHTTPOrchestratorService(baseURL string, clientConfig utils.HTTPClientConfig) *HTTPOrchestratorService {
	return &HTTPOrchestratorService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: utils.NewHTTPClient(clientConfig),
	}
}

// BaseURL returns the orchestrator base address
func (s *HTTPOrchestratorService) BaseURL() string {
	return s.baseURL
}

// Forward sends req to the orchestrator. The body is passed through untouched
// and never logged.
func (s *HTTPOrchestratorService) Forward(ctx context.Context, req *services.ForwardRequest) (*services.ForwardResponse, error) {
	if req == nil {
		return nil, errors.New("forward request cannot be nil")
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, s.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if req.Body != nil {
		httpReq.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	httpReq.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	if req.RequestID != "" {
		httpReq.Header.Set(echo.HeaderXRequestID, req.RequestID)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, &services.TransportError{Timeout: isTimeout(err), Err: err}
	}
	defer utils.SafeCloseResponse(resp)

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &services.TransportError{Timeout: isTimeout(err), Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return &services.ForwardResponse{
		StatusCode: resp.StatusCode,
		Body:       respBody,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
