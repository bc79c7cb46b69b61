// Package transport is the shared HTTP layer for remote services: the
// record store API and the SPARQL endpoint. It applies authentication,
// paces requests through a token bucket and maps failing status codes
// to typed errors.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bankgreen/bankmap/pkg/constants"
	"github.com/bankgreen/bankmap/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// maxErrorBody caps how much of a failing response ends up in an error message.
const maxErrorBody = 512

// Client provides HTTP client functionality with authentication and pacing.
type Client struct {
	http    *http.Client
	auth    Authenticator
	apiKey  string
	service string
	limiter *rate.Limiter
	accept  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithRateLimit paces requests at rps with the given burst.
// A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithService names the remote service in errors.
func WithService(name string) Option {
	return func(c *Client) {
		c.service = name
	}
}

// WithAccept overrides the Accept header sent on every request.
func WithAccept(mime string) Option {
	return func(c *Client) {
		c.accept = mime
	}
}

// New creates a new transport client with the specified authenticator and key.
func New(auth Authenticator, apiKey string, opts ...Option) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	c := &Client{
		http:    &http.Client{Timeout: DefaultHTTPTimeout},
		auth:    auth,
		apiKey:  apiKey,
		service: "http",
		accept:  "application/json",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs an HTTP request with authentication applied. It waits for the
// rate limiter first, so cancelling ctx also abandons a queued request.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if c.apiKey != "" {
		c.auth.Apply(req, c.apiKey)
	}

	req.Header.Set("Accept", c.accept)
	if req.Method == http.MethodPost || req.Method == http.MethodPut || req.Method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.http.Do(req.WithContext(ctx))
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", "GET "+url, err)
	}
	return c.Do(ctx, req)
}

// JSON sends body (when non-nil) encoded as JSON and decodes a successful
// response into out (when non-nil). Responses with a status of 400 or above
// become *errors.APIError.
func (c *Client) JSON(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.WrapParse("json", url, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return errors.WrapResource("create", "request", method+" "+url, err)
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return &errors.APIError{Service: c.service, Endpoint: url, Message: err.Error(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if err := c.check(resp, url); err != nil {
		return err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WrapParse("json", url, err)
	}
	return nil
}

// Fetch performs a GET and returns the whole body of a successful response.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, &errors.APIError{Service: c.service, Endpoint: url, Message: err.Error(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if err := c.check(resp, url); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapIO("read", url, err)
	}
	return data, nil
}

func (c *Client) check(resp *http.Response, url string) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &errors.APIError{
		Service:    c.service,
		StatusCode: resp.StatusCode,
		Message:    msg,
		Endpoint:   url,
	}
}
