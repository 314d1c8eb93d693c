// Package backend provides the network collaborators the fetch coordinator
// talks to: the resource fetch client and the reachability probe.
package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// defaultTimeout is used when no timeout is provided
	defaultTimeout = 30 * time.Second

	// userAgent identifies this client to the backend
	userAgent = "featurefetch/1.0"
)

// HTTPError represents an HTTP error
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
}

// Error returns the error message
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Message)
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, url, message string) error {
	return &HTTPError{
		StatusCode: statusCode,
		URL:        url,
		Message:    message,
	}
}

// Client fetches the raw envelope bytes for the polled resource. A non-nil
// error is a transport failure; the coordinator decodes the bytes itself.
//
//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client,ReachabilityProbe
type Client interface {
	// Fetch performs one network call and returns the raw response body
	Fetch(ctx context.Context) ([]byte, error)
}

// defaultClient is the HTTP implementation of Client
type defaultClient struct {
	endpoint string
	client   *http.Client
}

// NewDefaultClient creates an HTTP client for the given resource endpoint.
// A zero timeout selects the default.
func NewDefaultClient(endpoint string, timeout time.Duration) Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &defaultClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Fetch performs a GET against the resource endpoint
func (c *defaultClient) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, NewHTTPError(resp.StatusCode, c.endpoint, string(body))
	}

	return body, nil
}
