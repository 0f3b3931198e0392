// Package googletasks implements gateway.Gateway over one Google Tasks list.
package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"tasksync/internal/config"
	"tasksync/internal/gateway"
	"tasksync/internal/task"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks per page.
	PageSize = 100

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"
)

// ErrUnauthorized marks a rejected or expired token.
var ErrUnauthorized = fmt.Errorf("%w: token expired or revoked (run: tasksync login)", gateway.ErrUnauthorized)

// Client implements gateway.Gateway using the Google Tasks API.
type Client struct {
	svc     *tasks.Service
	listID  string
	timeout time.Duration
}

// New creates a client for the list configured in cfg.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	oauthConfig, err := OAuthConfig(cfg)
	if err != nil {
		return nil, err
	}

	token, err := LoadToken(cfg.TokenPath())
	if err != nil {
		return nil, err
	}

	// Auto-refreshing token source
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, token))

	svc, err := tasks.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}

	return &Client{
		svc:     svc,
		listID:  listOrDefault(cfg.Settings.TaskList),
		timeout: cfg.Settings.Timeout.Duration,
	}, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client and endpoint
// (for testing).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, endpoint, listID string) (*Client, error) {
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{svc: svc, listID: listOrDefault(listID)}, nil
}

// OAuthConfig loads the OAuth client credentials from the config directory.
func OAuthConfig(cfg *config.Config) (*oauth2.Config, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}
	oauthConfig, err := google.ConfigFromJSON(clientJSON, tasks.TasksScope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}
	return oauthConfig, nil
}

// LoadToken reads a stored OAuth token.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token.json: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token.json: %w", err)
	}
	return &token, nil
}

// List returns every task of the list, completed ones included, in API order.
func (c *Client) List(ctx context.Context) ([]task.Task, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	result := []task.Task{}
	err := c.svc.Tasks.List(c.listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, gt := range resp.Items {
				t, err := fromAPI(gt)
				if err != nil {
					return err
				}
				result = append(result, t)
			}
			return nil
		})
	if err != nil {
		return nil, wrapError("list", "", err)
	}
	return result, nil
}

// Create inserts a new task. Google Tasks has no creation timestamp, so
// CreatedAt stays zero here and in List.
func (c *Client) Create(ctx context.Context, draft task.Draft) (task.Task, error) {
	if !draft.Valid() {
		return task.Task{}, &gateway.ValidationError{Op: "create", Message: "title is required"}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	body := toAPI(task.Task{
		Title:       draft.Title,
		Description: draft.Description,
		DueDate:     draft.DueDate,
	})
	gt, err := c.svc.Tasks.Insert(c.listID, body).Context(ctx).Do()
	if err != nil {
		return task.Task{}, wrapError("create", "", err)
	}
	created, err := fromAPI(gt)
	if err != nil {
		return task.Task{}, &gateway.TransportError{Op: "create", Err: err}
	}
	return created, nil
}

// Update replaces the task's title, notes, status and due date.
func (c *Client) Update(ctx context.Context, t task.Task) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	_, err := c.svc.Tasks.Update(c.listID, t.ID, toAPI(t)).Context(ctx).Do()
	if err != nil {
		return wrapError("update", t.ID, err)
	}
	return nil
}

// Delete deletes a task.
func (c *Client) Delete(ctx context.Context, id string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.svc.Tasks.Delete(c.listID, id).Context(ctx).Do(); err != nil {
		return wrapError("delete", id, err)
	}
	return nil
}

// withTimeout applies the configured limit. Zero leaves ctx as the only bound.
func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// toAPI builds the full resource sent by insert and update. An absent due
// date is sent as an explicit null so update clears it.
func toAPI(t task.Task) *tasks.Task {
	gt := &tasks.Task{
		Id:     t.ID,
		Title:  t.Title,
		Notes:  t.Description,
		Status: statusNeedsAction,
	}
	if t.Completed {
		gt.Status = statusCompleted
	} else {
		gt.NullFields = append(gt.NullFields, "Completed")
	}
	if t.DueDate != nil {
		gt.Due = task.FormatTime(*t.DueDate)
	} else {
		gt.NullFields = append(gt.NullFields, "Due")
	}
	gt.ForceSendFields = []string{"Notes"}
	return gt
}

func fromAPI(gt *tasks.Task) (task.Task, error) {
	t := task.Task{
		ID:          gt.Id,
		Title:       gt.Title,
		Description: gt.Notes,
		Completed:   gt.Status == statusCompleted,
	}
	if gt.Due != "" {
		due, err := task.ParseTime(gt.Due)
		if err != nil {
			return task.Task{}, fmt.Errorf("task %s: due: %w", gt.Id, err)
		}
		t.DueDate = &due
	}
	return t, nil
}

// wrapError maps API errors onto the gateway taxonomy.
func wrapError(op, id string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			if id != "" {
				return &gateway.NotFoundError{Op: op, ID: id}
			}
		case http.StatusBadRequest:
			if op == "create" {
				return &gateway.ValidationError{Op: op, Message: apiErr.Message}
			}
		case http.StatusUnauthorized, http.StatusForbidden:
			return &gateway.TransportError{Op: op, StatusCode: apiErr.Code, Err: ErrUnauthorized}
		}
		return &gateway.TransportError{Op: op, StatusCode: apiErr.Code, Err: err}
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return &gateway.TransportError{Op: op, Err: fmt.Errorf("%w: %v", ErrUnauthorized, retrieveErr)}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &gateway.TransportError{Op: op, Err: fmt.Errorf("request timed out: %w", err)}
	}
	return &gateway.TransportError{Op: op, Err: err}
}

func listOrDefault(id string) string {
	if id == "" {
		return DefaultListID
	}
	return id
}
