// Package upstream wraps the remote sensus REST API. The console never
// owns business data; every collection and detail read, and every write,
// goes through this client.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client issues requests against the sensus API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Ping checks if the remote API is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/health", c.baseURL), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return &HTTPError{Status: resp.StatusCode}
	}
	return nil
}

// Mutate sends a write (POST/PUT/DELETE) and returns the server message.
func (c *Client) Mutate(ctx context.Context, token, method, path string, payload any) (string, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return "", err
		}
		body = bytes.NewReader(data)
	}
	resp, err := c.do(ctx, token, method, path, nil, body)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	// DELETE conveys success via the HTTP status; the body may be empty.
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if method == http.MethodDelete {
			return "", nil
		}
		return "", fmt.Errorf("upstream: decode response: %w", err)
	}
	if !out.Success && method != http.MethodDelete {
		return "", &NotFoundError{Message: out.Message}
	}
	return out.Message, nil
}

func (c *Client) do(ctx context.Context, token, method, path string, query url.Values, body io.Reader) (*http.Response, error) {
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
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
		return nil, &NetworkError{Err: err}
	}
	if resp.StatusCode >= 400 {
		defer func() {
			_ = resp.Body.Close()
		}()
		return nil, newHTTPError(resp)
	}
	return resp, nil
}

func newHTTPError(resp *http.Response) *HTTPError {
	herr := &HTTPError{Status: resp.StatusCode}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err == nil {
		herr.Message = body.Message
	}
	return herr
}
