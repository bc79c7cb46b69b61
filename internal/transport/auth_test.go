package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankgreen/bankmap/pkg/errors"
)

// TestNoAuth tests that NoAuth applies no authentication.
func TestNoAuth(t *testing.T) {
	auth := &NoAuth{}
	req := &http.Request{Header: make(http.Header)}

	auth.Apply(req, "test-api-key")

	assert.Empty(t, req.Header)
}

// TestBearerAuth tests Bearer token authentication.
func TestBearerAuth(t *testing.T) {
	auth := &BearerAuth{}
	req := &http.Request{Header: make(http.Header)}

	auth.Apply(req, "test-api-key")

	assert.Equal(t, "Bearer test-api-key", req.Header.Get("Authorization"))
}

func TestClientJSON(t *testing.T) {
	var gotAuth, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(&BearerAuth{}, "key123")
	var out struct {
		OK bool `json:"ok"`
	}
	err := c.JSON(context.Background(), http.MethodPost, srv.URL, map[string]string{"a": "b"}, &out)
	require.NoError(t, err)

	assert.True(t, out.OK)
	assert.Equal(t, "Bearer key123", gotAuth)
	assert.Equal(t, "application/json", gotType)
}

func TestClientStatusErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		rateLimited bool
		unavailable bool
	}{
		{"too many requests", http.StatusTooManyRequests, true, false},
		{"server error", http.StatusBadGateway, false, true},
		{"bad request", http.StatusUnprocessableEntity, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			c := New(nil, "", WithService("store"))
			err := c.JSON(context.Background(), http.MethodGet, srv.URL, nil, nil)
			require.Error(t, err)

			var apiErr *errors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, "store", apiErr.Service)
			assert.Equal(t, "nope", apiErr.Message)
			assert.Equal(t, tt.rateLimited, errors.IsRateLimited(err))
			assert.Equal(t, tt.unavailable, errors.Is(err, errors.ErrStoreUnavailable))
		})
	}
}

func TestClientFetch(t *testing.T) {
	var accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	c := New(nil, "", WithAccept("application/sparql-results+json"), WithTimeout(5*time.Second))
	data, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "payload", string(data))
	assert.Equal(t, "application/sparql-results+json", accept)
}

func TestClientRateLimitHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(nil, "", WithRateLimit(0.001, 1))

	// First request consumes the only token.
	require.NoError(t, c.JSON(context.Background(), http.MethodGet, srv.URL, nil, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.JSON(ctx, http.MethodGet, srv.URL, nil, nil)
	assert.Error(t, err)
}
