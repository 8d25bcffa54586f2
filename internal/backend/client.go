// Package backend is the typed client for the upstream records service.
// Responses are decoded at the boundary and failures are classified, so
// callers can tell an unreachable backend from a malformed response from a
// genuinely empty result set.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Classified client errors. Callers match with errors.Is.
var (
	// ErrUnreachable covers network failures and non-2xx responses.
	ErrUnreachable = errors.New("backend unreachable")
	// ErrMalformed covers responses that arrive but fail to decode.
	ErrMalformed = errors.New("backend response malformed")
)

const maxResponseBytes = 10 << 20 // 10 MiB

// Client talks to the upstream records service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a Client. An empty baseURL yields a client whose every call
// reports ErrUnreachable, which the modules treat as "serve demo data".
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Configured reports whether a backend base URL is set.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// GetJSON fetches path and decodes the response body into v.
func (c *Client) GetJSON(ctx context.Context, path string, v any) error {
	if c.baseURL == "" {
		return fmt.Errorf("%w: no base URL configured", ErrUnreachable)
	}

	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("join url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return fmt.Errorf("%w: status %d from %s", ErrUnreachable, resp.StatusCode, path)
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// PostJSON sends body as JSON to path and decodes the response into v when
// v is non-nil.
func (c *Client) PostJSON(ctx context.Context, path string, body, v any) error {
	if c.baseURL == "" {
		return fmt.Errorf("%w: no base URL configured", ErrUnreachable)
	}

	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("join url: %w", err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return fmt.Errorf("%w: status %d from %s", ErrUnreachable, resp.StatusCode, path)
	}

	if v == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
