// Package apiclient talks to the authentication backend over HTTP.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Backend endpoints.
const (
	LoginPath    = "/api/login"
	RegisterPath = "/api/register"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// ErrNetwork wraps transport failures: the request never produced a response.
var ErrNetwork = errors.New("apiclient: network failure")

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("apiclient: %s returned status %d", e.Endpoint, e.StatusCode)
}

// HTTPClient matches the subset of http.Client used by Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Response is a successful backend reply.
type Response struct {
	StatusCode int
	Body       []byte
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return errors.New("apiclient: empty response body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("apiclient: decode response: %w", err)
	}
	return nil
}

// Client posts form payloads to the backend API.
type Client struct {
	base   *url.URL
	client HTTPClient
}

// New constructs a Client for baseURL. A nil client uses an http.Client with the given
// timeout; a zero timeout leaves the transport default in place.
func New(baseURL string, client HTTPClient, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("apiclient: base URL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("apiclient: base URL %q must be absolute", baseURL)
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Client{base: parsed, client: client}, nil
}

// PostJSON sends body as JSON to endpoint. Non-2xx replies yield *StatusError and
// transport failures wrap ErrNetwork. The body of a failed reply is not interpreted.
func (c *Client) PostJSON(ctx context.Context, endpoint string, body any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: encode request: %w", err)
	}

	target := c.base.JoinPath(endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNetwork, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %v", ErrNetwork, endpoint, err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}
