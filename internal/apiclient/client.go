// Package apiclient performs requests against the Monocart REST API.
//
// The client composes URLs against a configured base, attaches bearer tokens
// handed in by callers, and translates failures into the typed errors in
// errors.go. It never unwraps payloads and never touches session storage.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 10 << 20
)

// Request describes one API call
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON-encoded when non-nil. Ignored when Form is set.
	Body   interface{}
	Form   *Form
	Token  string
	Header http.Header
}

// Client is the HTTP client adapter for the Monocart API
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for an absolute base URL such as https://api.example.com/api
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		baseURL: u,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		},
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// URL joins path onto the base URL with exactly one slash between them
func (c *Client) URL(path string, query url.Values) string {
	u := *c.baseURL
	u.RawQuery = ""
	u.Fragment = ""

	base := strings.TrimRight(u.Path, "/")
	rel := strings.TrimLeft(path, "/")
	if rel == "" {
		u.Path = base
	} else {
		u.Path = base + "/" + rel
	}
	u.RawPath = ""

	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	return u.String()
}

// Do performs req and returns the raw JSON body of a 2xx response.
// An empty 2xx body is returned as JSON null.
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	body, contentType, err := req.encode()
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.URL(req.Path, req.Query), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Debug("API request failed",
			zap.String("method", method),
			zap.String("path", req.Path),
			zap.Error(err),
		)
		return nil, &NetworkError{Method: method, Path: req.Path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Method: method, Path: req.Path, Err: err}
	}

	c.logger.Debug("API request completed",
		zap.String("method", method),
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Status:  resp.StatusCode,
			Message: errorMessage(resp, raw),
			Method:  method,
			Path:    req.Path,
		}
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: %s %s returned a non-JSON body", ErrMalformedResponse, method, req.Path)
	}

	return json.RawMessage(trimmed), nil
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, path string, query url.Values, token string) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query, Token: token})
}

// Post performs a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body interface{}, token string) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body, Token: token})
}

// Patch performs a PATCH request with a JSON body
func (c *Client) Patch(ctx context.Context, path string, body interface{}, token string) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body, Token: token})
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, path string, token string) (json.RawMessage, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path, Token: token})
}

func (r Request) encode() (io.Reader, string, error) {
	if r.Form != nil {
		return r.Form.encode()
	}
	if r.Body == nil {
		return nil, "", nil
	}

	payload, err := json.Marshal(r.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode request body: %w", err)
	}
	return bytes.NewReader(payload), "application/json", nil
}

// errorMessage extracts the server message, falling back to the status text
func errorMessage(resp *http.Response, raw []byte) string {
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
		if msg := nestedErrorMessage(payload.Error); msg != "" {
			return msg
		}
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "text/plain" {
		if text := strings.TrimSpace(string(raw)); text != "" {
			return text
		}
	}

	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}

// nestedErrorMessage handles both {"error":"..."} and {"error":{"message":"..."}}
func nestedErrorMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.Message)
	}
	return ""
}
