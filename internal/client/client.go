// Package client is a small Redmine REST client authenticating with an API key.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"redmine-mcp/internal/metrics"
	"redmine-mcp/internal/types"
)

const apiKeyHeader = "X-Redmine-API-Key"

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 32 * 1024 * 1024

// Client talks to one Redmine instance.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New returns a client for baseURL (without trailing slash) with TLS 1.2+
// and the given request timeout.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
			},
		},
	}
}

// BaseURL returns the Redmine base URL the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError is returned for non-2xx responses.
type APIError struct {
	Method   string
	Endpoint string
	Status   int
	// Messages holds the entries of Redmine's {"errors": [...]} body, if any.
	Messages []string
}

func (e *APIError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("%s (HTTP %d)", strings.Join(e.Messages, "; "), e.Status)
	}
	switch e.Status {
	case http.StatusBadRequest:
		return "bad request (HTTP 400)"
	case http.StatusUnauthorized:
		return "authentication failed (HTTP 401)"
	case http.StatusForbidden:
		return "access denied (HTTP 403)"
	case http.StatusNotFound:
		return "not found or no permission (HTTP 404)"
	case http.StatusUnprocessableEntity:
		return "validation failed (HTTP 422)"
	default:
		return fmt.Sprintf("Redmine API error (HTTP %d)", e.Status)
	}
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Get performs a GET request and returns the response body.
func (c *Client) Get(ctx context.Context, endpoint string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, endpoint, "", nil)
}

// GetJSON performs a GET request and decodes the JSON response into v.
func (c *Client) GetJSON(ctx context.Context, endpoint string, v any) error {
	body, err := c.Get(ctx, endpoint)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", endpoint, err)
	}
	return nil
}

// Post sends a JSON body with POST.
func (c *Client) Post(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, endpoint, "application/json", body)
}

// Put sends a JSON body with PUT.
func (c *Client) Put(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPut, endpoint, "application/json", body)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, endpoint string) error {
	_, err := c.do(ctx, http.MethodDelete, endpoint, "", nil)
	return err
}

// Upload stores data on the server and returns the upload token to reference
// it from an issue.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	endpoint := "/uploads.json?filename=" + url.QueryEscape(filename)
	body, err := c.do(ctx, http.MethodPost, endpoint, "application/octet-stream", data)
	if err != nil {
		return "", err
	}

	var resp types.UploadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse upload response: %w", err)
	}
	if resp.Upload.Token == "" {
		return "", fmt.Errorf("no upload token returned")
	}
	return resp.Upload.Token, nil
}

func (c *Client) do(ctx context.Context, method, endpoint, contentType string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	log := logrus.WithFields(logrus.Fields{"method": method, "endpoint": endpoint})
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveAPIRequest(method, 0, time.Since(start))
		log.WithError(err).Warn("redmine request failed")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("request to Redmine cancelled: %w", ctxErr)
		}
		return nil, fmt.Errorf("failed to connect to Redmine: %w", err)
	}
	defer resp.Body.Close()

	elapsed := time.Since(start)
	metrics.ObserveAPIRequest(method, resp.StatusCode, elapsed)
	log.WithFields(logrus.Fields{"status": resp.StatusCode, "duration": elapsed}).Debug("redmine request")

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(method, endpoint, resp.StatusCode, respBody)
	}

	return respBody, nil
}

func newAPIError(method, endpoint string, status int, body []byte) *APIError {
	apiErr := &APIError{Method: method, Endpoint: endpoint, Status: status}
	var parsed types.ErrorResponse
	if json.Unmarshal(body, &parsed) == nil {
		for _, m := range parsed.Errors {
			if m = strings.TrimSpace(m); m != "" {
				apiErr.Messages = append(apiErr.Messages, m)
			}
		}
	}
	return apiErr
}
