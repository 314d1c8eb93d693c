package backend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GaiaEyesHQ/featurefetch/internal/backend"
)

func TestHTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		statusCode    int
		url           string
		message       string
		expectedError string
	}{
		{
			name:          "not found",
			statusCode:    404,
			url:           "http://example.com/v1/space-weather",
			message:       "Not Found",
			expectedError: "HTTP 404 for URL http://example.com/v1/space-weather: Not Found",
		},
		{
			name:          "server error with empty message",
			statusCode:    500,
			url:           "http://example.com",
			message:       "",
			expectedError: "HTTP 500 for URL http://example.com: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := backend.NewHTTPError(tt.statusCode, tt.url, tt.message)
			require.Error(t, err)
			assert.Equal(t, tt.expectedError, err.Error())

			var httpErr *backend.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.statusCode, httpErr.StatusCode)
			assert.Equal(t, tt.url, httpErr.URL)
		})
	}
}
