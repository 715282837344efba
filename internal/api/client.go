package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/passdrive/passdrive-cli/internal/debug"
)

const (
	DefaultTimeout = 30 * time.Second

	// Bounded retry for idempotent requests only; writes are never retried
	// (a timed-out post must surface as a durable-write failure, not loop).
	maxServerErrorRetries = 2
	serverErrorRetryDelay = 1 * time.Second
)

// Client is the PassDrive REST client. It is the source of truth for
// conversations and messages; the broker only pushes live deltas.
type Client struct {
	BaseURL   string
	Token     string
	Username  string
	UserAgent string
	HTTP      *http.Client

	retryDelay time.Duration // overridable in tests
}

// New creates a PassDrive API client.
func New(baseURL, token, username string) *Client {
	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		baseTransport = &http.Transport{}
	}
	transport := baseTransport.Clone()
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	} else {
		transport.TLSClientConfig = transport.TLSClientConfig.Clone()
	}
	transport.TLSClientConfig.MinVersion = tls.VersionTLS12

	return &Client{
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
		Token:    token,
		Username: username,
		HTTP: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: transport,
		},
		retryDelay: serverErrorRetryDelay,
	}
}

func (c *Client) url(path string) string {
	if path != "" && path[0] != '/' {
		path = "/" + path
	}
	return c.BaseURL + "/api" + path
}

// do performs an HTTP request and decodes the JSON response into result.
func (c *Client) do(ctx context.Context, method, url string, body any, result any) error {
	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	respBody, err := c.execute(ctx, method, url, jsonBody, "application/json")
	if err != nil {
		return err
	}
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unexpected API response format (JSON decode failed): %w", err)
		}
	}
	return nil
}

func (c *Client) execute(ctx context.Context, method, url string, body []byte, contentType string) ([]byte, error) {
	isIdempotent := method == http.MethodGet || method == http.MethodHead

	var retries int
	for attempt := 1; ; attempt++ {
		start := time.Now()
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if c.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.Token)
		}
		if c.UserAgent != "" {
			req.Header.Set("User-Agent", c.UserAgent)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.HTTP.Do(req)
		if err != nil {
			if debug.IsEnabled(ctx) {
				slog.Debug("request failed", "method", method, "url", url, "attempt", attempt, "error", err)
			}
			return nil, fmt.Errorf("request failed: %w", err)
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		if debug.IsEnabled(ctx) {
			slog.Debug("request complete", "method", method, "url", url, "status", resp.StatusCode, "attempt", attempt, "duration", time.Since(start))
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, &AuthError{Reason: sanitizeErrorBody(string(respBody))}
		}

		if resp.StatusCode >= 500 && isIdempotent && retries < maxServerErrorRetries {
			slog.Info("server error, retrying", "status", resp.StatusCode)
			if err := sleepWithContext(ctx, c.retryDelay); err != nil {
				return nil, err
			}
			retries++
			continue
		}

		if resp.StatusCode >= 400 {
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Body:       sanitizeErrorBody(string(respBody)),
			}
		}

		return respBody, nil
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// get performs a GET request against an /api path.
func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, c.url(path), nil, result)
}

// post performs a POST request against an /api path.
func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	return c.do(ctx, http.MethodPost, c.url(path), body, result)
}

// postMultipart uploads files as multipart form data.
func (c *Client) postMultipart(ctx context.Context, path string, fields map[string]string, filename string, content []byte, result any) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("failed to write file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close multipart writer: %w", err)
	}

	respBody, err := c.execute(ctx, http.MethodPost, c.url(path), body.Bytes(), writer.FormDataContentType())
	if err != nil {
		return err
	}
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unexpected API response format (JSON decode failed): %w", err)
		}
	}
	return nil
}

// sanitizeErrorBody extracts a safe error message from an API response
// without echoing tokens or other payload fields back to the user.
func sanitizeErrorBody(body string) string {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &errResp); err != nil {
		trimmed := strings.TrimSpace(body)
		// Plain-text error bodies are common from the session endpoints.
		if trimmed != "" && !strings.ContainsAny(trimmed, "{}<>") && len(trimmed) < 200 {
			return trimmed
		}
		return "API request failed (response body redacted)"
	}
	if errResp.Error != "" {
		return errResp.Error
	}
	if errResp.Message != "" {
		return errResp.Message
	}
	return "API request failed (response body redacted)"
}

// HealthCheck reports whether the server answers GET /health with 200.
func (c *Client) HealthCheck(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return false, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK, nil
}

// BrokerURL converts the REST base URL to the broker WebSocket endpoint.
func (c *Client) BrokerURL() string {
	u := c.BaseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}
