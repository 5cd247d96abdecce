package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/takutakahashi/seo-agent-proxy/pkg/agent"
	"github.com/takutakahashi/seo-agent-proxy/pkg/utils"
)

// Gateway endpoint paths
const (
	ConfigurePath = "/api/agent/configure"
	ReviewPath    = "/api/agent/review"
	StatusPath    = "/api/agent/status"
)

// Client talks to the Submission Gateway. It implements form.Submitter.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new gateway client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: utils.NewDefaultHTTPClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusResult is the orchestrator status payload returned through the gateway
type StatusResult struct {
	Configured bool    `json:"configured"`
	Scheduled  bool    `json:"scheduled"`
	Agent      *string `json:"agent"`
	GHUser     *string `json:"gh_user"`
	Repo       *string `json:"repo"`
	Branch     *string `json:"branch"`
}

// Configure submits an agent configuration.
// A gateway answer with ok=false is returned as an envelope, not as an error.
func (c *Client) Configure(ctx context.Context, envelope *agent.SubmissionEnvelope) (*agent.ResponseEnvelope, error) {
	return c.do(ctx, http.MethodPost, ConfigurePath, envelope)
}

// Review triggers an analytics review cycle
func (c *Client) Review(ctx context.Context, req *agent.ReviewRequest) (*agent.ResponseEnvelope, error) {
	return c.do(ctx, http.MethodPost, ReviewPath, req)
}

// Status reads the orchestrator status
func (c *Client) Status(ctx context.Context) (*agent.ResponseEnvelope, *StatusResult, error) {
	env, err := c.do(ctx, http.MethodGet, StatusPath, nil)
	if err != nil {
		return nil, nil, err
	}
	if !env.OK {
		return env, nil, nil
	}
	var status StatusResult
	if err := json.Unmarshal(env.Data, &status); err != nil {
		return env, nil, fmt.Errorf("failed to decode status: %w", err)
	}
	return env, &status, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (*agent.ResponseEnvelope, error) {
	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer utils.SafeCloseResponse(resp)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var envelope agent.ResponseEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("gateway returned status %d with an unexpected body: %w", resp.StatusCode, err)
	}
	if !envelope.OK && envelope.Error == "" {
		envelope.Error = fmt.Sprintf("gateway returned %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return &envelope, nil
}
