package utils

import (
	"log"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single outbound call unless configured otherwise
const DefaultTimeout = 30 * time.Second

// HTTPClientConfig holds configuration for HTTP client creation
type HTTPClientConfig struct {
	// Timeout of zero means no limit
	Timeout time.Duration
}

// DefaultHTTPClientConfig returns default HTTP client configuration
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout: DefaultTimeout,
	}
}

// NewHTTPClient creates a new HTTP client with the given configuration
func NewHTTPClient(config HTTPClientConfig) *http.Client {
	return &http.Client{
		Timeout: config.Timeout,
	}
}

// NewDefaultHTTPClient creates a new HTTP client with default configuration
func NewDefaultHTTPClient() *http.Client {
	return NewHTTPClient(DefaultHTTPClientConfig())
}

// IsSuccess reports whether status is in the 2xx range
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}

// SafeCloseResponse closes an HTTP response body, logging any failure
func SafeCloseResponse(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Warning: failed to close HTTP response body: %v", err)
		}
	}
}
