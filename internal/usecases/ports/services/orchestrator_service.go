package services

import (
	"context"
	"fmt"
)

// Orchestrator endpoints relative to the configured base address
const (
	OrchestratorConfigurePath = "/configure"
	OrchestratorReviewPath    = "/review"
	OrchestratorStatusPath    = "/status"
)

// OrchestratorService relays raw JSON payloads to the SEO agent orchestrator
type OrchestratorService interface {
	// Forward performs exactly one call and returns the orchestrator's answer
	// regardless of its status code. Only transport failures are errors.
	Forward(ctx context.Context, req *ForwardRequest) (*ForwardResponse, error)

	// BaseURL returns the orchestrator base address
	BaseURL() string
}

// ForwardRequest is one outbound orchestrator call
type ForwardRequest struct {
	Method    string
	Path      string
	Body      []byte
	RequestID string
}

// ForwardResponse is the orchestrator's raw answer
type ForwardResponse struct {
	StatusCode int
	Body       []byte
}

// TransportError means the orchestrator could not be reached or did not
// answer in time
type TransportError struct {
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("orchestrator timed out: %v", e.Err)
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
