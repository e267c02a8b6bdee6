// Package remote is the JSON-over-HTTP plumbing shared by the commerce API and storefront proxy clients.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/g-but/fitfoot/internal/logger"
)

const (
	CodeNetwork  = "network"  // request never got a response
	CodeRejected = "rejected" // non 2xx response
	CodeDecode   = "decode"   // 2xx response that can't be read
)

const defaultTimeout = 10 * time.Second

type Error struct {
	Code string

	// Response status and the server provided message, set for rejected requests only
	Status  int
	Message string

	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("code: %s, status: %d, message: %q, error: %v", e.Code, e.Status, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(code string, status int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Status:  status,
		Message: message,
		Err:     err,
	}
}

// AsError extracts remote error from the chain
func AsError(err error) (*Error, bool) {
	var re *Error
	ok := errors.As(err, &re)
	return re, ok
}

type Client struct {
	BaseURL string
	Timeout time.Duration

	client *http.Client
	logger logger.Logger
}

func NewClient(baseURL string, l logger.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Timeout: defaultTimeout,
		client:  &http.Client{},
		logger:  logger.OrNoOp(l),
	}
}

// WithHTTPClient replaces underlying http client, mostly for tests
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.client = hc
	return c
}

// Do sends in as JSON body (if not nil) and decodes 2xx response into out (if not nil).
// Non empty token is sent as bearer authorization.
func (c *Client) Do(ctx context.Context, method string, path string, token string, in any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return NewError(CodeNetwork, 0, "", fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("Request failed", "method", method, "path", path, "error", err)
		return NewError(CodeNetwork, 0, "", fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close() // nolint:errcheck

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return c.processSuccess(resp, out)
	default:
		return c.processRejected(method, path, resp)
	}
}

func (c *Client) Post(ctx context.Context, path string, token string, in any, out any) error {
	return c.Do(ctx, http.MethodPost, path, token, in, out)
}

func (c *Client) Put(ctx context.Context, path string, token string, in any, out any) error {
	return c.Do(ctx, http.MethodPut, path, token, in, out)
}

func (c *Client) Get(ctx context.Context, path string, token string, out any) error {
	return c.Do(ctx, http.MethodGet, path, token, nil, out)
}

func (c *Client) processSuccess(resp *http.Response, out any) error {
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Warn("Failed to decode response", "status", resp.StatusCode, "error", err)
		return NewError(CodeDecode, resp.StatusCode, "", fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// Error bodies are {"error": "..."}; some servers use {"message": "..."} instead
func (c *Client) processRejected(method string, path string, resp *http.Response) error {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &body)

	message := body.Error
	if message == "" {
		message = body.Message
	}

	c.logger.Debug("Request rejected", "method", method, "path", path, "status", resp.StatusCode, "message", message)
	return NewError(CodeRejected, resp.StatusCode, message, fmt.Errorf("unexpected status code %d for %s %s", resp.StatusCode, method, path))
}
