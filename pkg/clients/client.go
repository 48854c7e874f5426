// Package clients contains the shared HTTP plumbing of the vendor API
// clients: authentication header injection, retry with exponential backoff
// and status code classification.
package clients

import (
	"bytes"
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

// Config configures one vendor API client.
type Config struct {
	// Name identifies the client in logs and errors.
	Name string

	// BaseURL is the root URL of the API, e.g. "http://localhost:7878".
	// An empty BaseURL leaves the client unconfigured.
	BaseURL string

	// APIKey is sent in AuthHeader on every request.
	APIKey string

	// AuthHeader is the header carrying APIKey.
	// Default: X-Api-Key
	AuthHeader string

	// Timeout bounds a single HTTP attempt.
	// Default: 30 seconds
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt for
	// transport errors and 5xx responses.
	MaxRetries int

	// RetryBackoff is the delay before the first retry; it doubles on each
	// further retry.
	// Default: 1 second
	RetryBackoff time.Duration

	// Observer, if set, is told about every HTTP attempt.
	Observer Observer
}

// Observer receives the outcome of each HTTP attempt. Status is 0 when the
// request failed before a response arrived.
type Observer interface {
	ObserveRequest(client string, status int, duration time.Duration)
}

// Client performs authenticated JSON requests against one vendor API.
type Client struct {
	config Config
	http   *http.Client
	logger *slog.Logger
}

// New creates a client, filling unset config fields with defaults.
func New(config Config) *Client {
	if config.AuthHeader == "" {
		config.AuthHeader = "X-Api-Key"
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = time.Second
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config: config,
		http:   &http.Client{Timeout: config.Timeout},
		logger: slog.Default().With("component", "clients."+config.Name),
	}
}

// Name returns the client name.
func (c *Client) Name() string {
	return c.config.Name
}

// Configured reports whether the client has a base URL.
func (c *Client) Configured() bool {
	return c != nil && c.config.BaseURL != ""
}

// Do sends a request to path (relative to the base URL) and returns the
// response for any 2xx status. The caller must close the body.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Response, error) {
	if !c.Configured() {
		return nil, &ClientError{Client: c.config.Name, Message: "client not configured", Cause: ErrNotConfigured}
	}

	target := c.config.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.config.RetryBackoff << (attempt - 1)
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"max_retries", c.config.MaxRetries,
				"backoff", backoff,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.config.APIKey != "" {
			req.Header.Set(c.config.AuthHeader, c.config.APIKey)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		c.logger.Debug("sending request", "method", method, "path", path)

		start := time.Now()
		resp, err := c.http.Do(req)
		c.observe(resp, time.Since(start))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = &ClientError{Client: c.config.Name, Message: "request failed", Cause: err}
			c.logger.Warn("request failed, will retry", "attempt", attempt+1, "error", err)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		cerr := &ClientError{
			Client:     c.config.Name,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(errorBody)),
		}
		if resp.StatusCode < 500 {
			// 4xx responses are not retried.
			return nil, cerr
		}
		lastErr = cerr
		c.logger.Warn("request returned error status, will retry",
			"status", resp.StatusCode,
			"attempt", attempt+1,
		)
	}

	return nil, lastErr
}

func (c *Client) observe(resp *http.Response, d time.Duration) {
	if c.config.Observer == nil {
		return
	}
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.config.Observer.ObserveRequest(c.config.Name, status, d)
}

// DoJSON sends reqBody (if non-nil) as JSON and decodes the response into
// respBody (if non-nil).
func (c *Client) DoJSON(ctx context.Context, method, path string, query url.Values, reqBody, respBody any) error {
	var body []byte
	if reqBody != nil {
		var err error
		body, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := c.Do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if respBody == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil && err != io.EOF {
		return &ClientError{
			Client:     c.config.Name,
			StatusCode: resp.StatusCode,
			Message:    "failed to decode response",
			Cause:      err,
		}
	}
	return nil
}
