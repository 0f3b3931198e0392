// Package httpapi implements gateway.Gateway over the HTTP/JSON tasks service.
package httpapi

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

	"tasksync/internal/gateway"
	"tasksync/internal/log"
	"tasksync/internal/task"
)

const (
	// DefaultBaseURL is the address of a locally running tasks service.
	DefaultBaseURL = "http://localhost:8080"

	// maxErrorBody bounds how much of an error response is read for a message.
	maxErrorBody = 4 << 10
)

// Client implements gateway.Gateway against a base URL.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds each call. The default, zero, waits until ctx is done.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		base: u,
		http: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service address.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// List fetches every task in server order.
func (c *Client) List(ctx context.Context) ([]task.Task, error) {
	var out []task.Task
	if err := c.do(ctx, "list", "", http.MethodGet, "/tasks", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []task.Task{}
	}
	return out, nil
}

// Create posts a draft. The draft is always sent with completed=false.
func (c *Client) Create(ctx context.Context, draft task.Draft) (task.Task, error) {
	draft.Completed = false
	var created task.Task
	if err := c.do(ctx, "create", "", http.MethodPost, "/tasks", draft, &created); err != nil {
		return task.Task{}, err
	}
	if !created.Persisted() {
		return task.Task{}, &gateway.TransportError{Op: "create", Err: fmt.Errorf("response has no id")}
	}
	return created, nil
}

// Update replaces the full record identified by t.ID.
func (c *Client) Update(ctx context.Context, t task.Task) error {
	return c.do(ctx, "update", t.ID, http.MethodPut, "/tasks/"+url.PathEscape(t.ID), t, nil)
}

// Delete removes the task with the given id.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, "delete", id, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, op, id, method, path string, in, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &gateway.TransportError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return &gateway.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.DebugLog.Printf("%s %s", method, req.URL)
	resp, err := c.http.Do(req)
	if err != nil {
		return &gateway.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classify(op, id, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &gateway.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// classify maps a non-2xx response onto the gateway error taxonomy. Only
// create reports ValidationError; a rejected update or delete is a transport
// failure.
func classify(op, id string, resp *http.Response) error {
	msg := errorMessage(resp.Body)

	switch resp.StatusCode {
	case http.StatusNotFound:
		if id != "" {
			return &gateway.NotFoundError{Op: op, ID: id}
		}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if op == "create" {
			return &gateway.ValidationError{Op: op, Message: msg}
		}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &gateway.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %s", gateway.ErrUnauthorized, msg)}
	}

	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &gateway.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", msg)}
}

// errorMessage extracts {"error": "..."} from a response body, falling back
// to the trimmed text.
func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(data))
}
