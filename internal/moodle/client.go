// Package moodle implements a client for the Moodle REST web-service API.
// It covers the handful of core_* functions needed to build completion
// reports and applies a fixed retry policy to every call.
package moodle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the per-request HTTP timeout
	DefaultTimeout = 60 * time.Second

	// DefaultRetries is the total number of attempts per call
	DefaultRetries = 3

	// DefaultRetryDelay is the base backoff delay; the wait before attempt
	// n+1 is n * DefaultRetryDelay
	DefaultRetryDelay = 1500 * time.Millisecond

	// restEndpoint is the REST server path relative to the base URL
	restEndpoint = "/webservice/rest/server.php"
)

// APIError is an application-level error signaled by the Moodle server
// inside an otherwise successful HTTP response
type APIError struct {
	Exception string `json:"exception"`
	Message   string `json:"message"`
	ErrorCode string `json:"errorcode"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("moodle exception: %s | %s", e.Message, e.ErrorCode)
}

// Client talks to one Moodle instance
// It is safe for concurrent use; all state is read-only after construction
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retries    int
	retryDelay time.Duration
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithTimeout overrides the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithRetries overrides the total attempt count (minimum 1)
func WithRetries(retries int) Option {
	return func(c *Client) {
		if retries > 0 {
			c.retries = retries
		}
	}
}

// WithRetryDelay overrides the base backoff delay
func WithRetryDelay(delay time.Duration) Option {
	return func(c *Client) {
		if delay >= 0 {
			c.retryDelay = delay
		}
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the Moodle instance at baseURL
// A trailing slash on baseURL is tolerated
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		retries:    DefaultRetries,
		retryDelay: DefaultRetryDelay,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the normalized base URL of the Moodle instance
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Call invokes one web-service function and decodes the response into out.
// Transport errors, non-2xx statuses, and application-level exceptions are
// all retried with linearly increasing backoff; after the last attempt the
// last failure is returned. out may be nil to discard the payload.
func (c *Client) Call(ctx context.Context, function string, params url.Values, out interface{}) error {
	var lastErr error

	for attempt := 1; attempt <= c.retries; attempt++ {
		lastErr = c.call(ctx, function, params, out)
		if lastErr == nil {
			return nil
		}

		c.logger.Warn("moodle call failed",
			"function", function,
			"attempt", attempt,
			"error", lastErr)

		if attempt == c.retries {
			break
		}

		// Linear backoff: attempt index times the base delay
		select {
		case <-time.After(time.Duration(attempt) * c.retryDelay):
		case <-ctx.Done():
			return fmt.Errorf("call %s cancelled: %w", function, ctx.Err())
		}
	}

	return fmt.Errorf("call %s failed after %d attempts: %w", function, c.retries, lastErr)
}

// call performs a single attempt
func (c *Client) call(ctx context.Context, function string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + restEndpoint

	query := url.Values{
		"wstoken":            {c.token},
		"wsfunction":         {function},
		"moodlewsrestformat": {"json"},
	}

	body := ""
	if params != nil {
		body = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?"+query.Encode(), strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	// An error payload is a JSON object carrying an "exception" key
	var apiErr APIError
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Exception != "" {
		return &apiErr
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", function, err)
	}

	return nil
}
