package backend

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const probeTimeout = 5 * time.Second

// ReachabilityProbe reports whether the backend is worth calling at all.
// The coordinator consults it once per run before any network call.
type ReachabilityProbe interface {
	IsReachable(ctx context.Context) bool
}

// httpProbe checks a health endpoint with a short GET
type httpProbe struct {
	endpoint string
	client   *http.Client
}

// NewHTTPProbe creates a probe against the given health endpoint
func NewHTTPProbe(endpoint string) ReachabilityProbe {
	return &httpProbe{
		endpoint: endpoint,
		client:   &http.Client{Timeout: probeTimeout},
	}
}

// IsReachable returns true when the health endpoint answers with a 2xx
func (p *httpProbe) IsReachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Debug("Reachability probe failed", "endpoint", p.endpoint, "error", err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
}

// alwaysReachable is used when no health endpoint is configured
type alwaysReachable struct{}

// NewAlwaysReachableProbe returns a probe that never blocks a fetch
func NewAlwaysReachableProbe() ReachabilityProbe {
	return alwaysReachable{}
}

// IsReachable always reports true
func (alwaysReachable) IsReachable(context.Context) bool { return true }
