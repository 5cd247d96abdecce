package client

import (
	"os"
	"strings"
)

const (
	// DefaultEndpoint is the gateway address used by the CLI when nothing is configured
	DefaultEndpoint = "http://localhost:8080"
	// EndpointEnv overrides DefaultEndpoint
	EndpointEnv = "SEO_AGENT_PROXY_ENDPOINT"
)

// EndpointFromEnv returns the gateway endpoint from the environment, or DefaultEndpoint
func EndpointFromEnv() string {
	if v := strings.TrimSpace(os.Getenv(EndpointEnv)); v != "" {
		return v
	}
	return DefaultEndpoint
}

// ResolveEndpoint prefers an explicit flag value over the environment
func ResolveEndpoint(flagValue string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	return EndpointFromEnv()
}
