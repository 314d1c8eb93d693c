package backend_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GaiaEyesHQ/featurefetch/internal/backend"
)

// newTestServer creates a new test server with keep-alives disabled.
// This prevents flaky tests when running in parallel, as closing a server
// with keep-alives enabled can affect other tests sharing the HTTP transport.
func newTestServer(handler http.Handler) *httptest.Server {
	server := httptest.NewServer(handler)
	server.Config.SetKeepAlivesEnabled(false)
	return server
}

func TestNewDefaultClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		timeout time.Duration
	}{
		{
			name:    "custom timeout",
			timeout: 5 * time.Second,
		},
		{
			name:    "zero timeout uses default",
			timeout: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := backend.NewDefaultClient("http://example.com", tt.timeout)
			require.NotNil(t, client)
		})
	}
}

func TestDefaultClient_Fetch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		statusCode   int
		responseBody string
		wantBody     string
		wantErr      bool
		wantHTTPCode int
	}{
		{
			name:         "successful envelope response",
			statusCode:   http.StatusOK,
			responseBody: `{"ok":true,"payload":{"value":"kp-7"}}`,
			wantBody:     `{"ok":true,"payload":{"value":"kp-7"}}`,
		},
		{
			name:         "204 is within the 2xx range",
			statusCode:   http.StatusNoContent,
			wantBody:     "",
		},
		{
			name:         "404 returns an HTTP error",
			statusCode:   http.StatusNotFound,
			responseBody: "not found",
			wantErr:      true,
			wantHTTPCode: http.StatusNotFound,
		},
		{
			name:         "503 returns an HTTP error with body",
			statusCode:   http.StatusServiceUnavailable,
			responseBody: "backend draining",
			wantErr:      true,
			wantHTTPCode: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Accept"))
				assert.NotEmpty(t, r.Header.Get("User-Agent"))
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer server.Close()

			client := backend.NewDefaultClient(server.URL, 5*time.Second)
			body, err := client.Fetch(context.Background())

			if tt.wantErr {
				require.Error(t, err)
				var httpErr *backend.HTTPError
				require.ErrorAs(t, err, &httpErr)
				assert.Equal(t, tt.wantHTTPCode, httpErr.StatusCode)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, string(body))
		})
	}
}

func TestDefaultClient_FetchConnectionRefused(t *testing.T) {
	t.Parallel()

	// Grab an address nothing listens on
	server := newTestServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client := backend.NewDefaultClient(url, time.Second)
	_, err := client.Fetch(context.Background())
	assert.Error(t, err)
}

func TestDefaultClient_FetchCancelledContext(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := backend.NewDefaultClient(server.URL, 10*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := client.Fetch(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
