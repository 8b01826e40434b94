// Package mobileapi is the authenticated HTTP capability used to talk to the
// booking backend's mobile API.
package mobileapi

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

	"fitbook/internal/credentials"
	"fitbook/internal/logging"
)

const (
	// DefaultTimeout bounds a single API call when the caller sets none.
	DefaultTimeout = 15 * time.Second

	// maxErrorBody caps how much of a failed response is kept for the error.
	maxErrorBody = 4 << 10
)

var (
	// ErrMissingCredential is returned when an endpoint requires a signed-in
	// user and no usable token is stored.
	ErrMissingCredential = errors.New("missing credential")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api error: %s", e.Status)
	}
	return fmt.Sprintf("api error: %s - %s", e.Status, e.Body)
}

// AuthMode controls how a request treats the stored credential.
type AuthMode int

const (
	// AuthOptional attaches the bearer token when one is usable and sends the
	// request anonymously otherwise.
	AuthOptional AuthMode = iota
	// AuthRequired fails with ErrMissingCredential when no usable token exists.
	AuthRequired
)

// TokenSource yields the current bearer token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Config holds configuration for the API client
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client performs authenticated JSON requests against the mobile API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *logging.Logger
	now        func() time.Time
}

// NewClient creates a new API client. tokens may be nil for anonymous use.
func NewClient(cfg Config, tokens TokenSource, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &loggingTransport{logger: logger},
		},
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
}

// Do sends method path with body encoded as JSON and decodes the response into
// out. Either body or out may be nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, mode AuthMode) error {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return err
	}
	if token == "" && mode == AuthRequired {
		return ErrMissingCredential
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// bearerToken returns the usable stored token, or "" when there is none.
func (c *Client) bearerToken(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", nil
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		if errors.Is(err, credentials.ErrNoToken) {
			return "", nil
		}
		return "", fmt.Errorf("load credential: %w", err)
	}

	if !credentials.Usable(token, c.now()) {
		c.logger.Debug("stored credential expired, sending request anonymously")
		return "", nil
	}
	return token, nil
}
