package http

import (
	"fmt"
	"net/http"
	"time"

	"socratic/internal/config"
	"socratic/pkg/circuitbreaker"
)

// Client wraps the standard http.Client with circuit-breaker protection for
// calls to external knowledge endpoints.
type Client struct {
	httpClient *http.Client
	breaker    circuitbreaker.CircuitBreaker
}

// NewClient creates a Client. When the breaker is disabled in config the
// client degrades to a plain http.Client with a timeout.
func NewClient(cfg config.CircuitBreakerConfig, timeout time.Duration) *Client {
	hc := &http.Client{Timeout: timeout}
	if !cfg.Enabled {
		return &Client{httpClient: hc}
	}
	return &Client{
		httpClient: hc,
		breaker: circuitbreaker.New(
			cfg.FailureThreshold,
			cfg.SuccessThreshold,
			config.Duration(cfg.Timeout, 30*time.Second),
		),
	}
}

// Do executes an HTTP request with circuit-breaker protection. Status codes
// >= 500 count as failures.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.httpClient.Do(req)
	}

	var resp *http.Response
	_, breakerErr := c.breaker.Execute(func() (interface{}, error) {
		var err error
		resp, err = c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("server error: received status code %d", resp.StatusCode)
		}
		return resp, nil
	})
	if breakerErr != nil {
		return nil, breakerErr
	}
	return resp, nil
}
