// Package googletasks implements the service.Service interface using the
// Google Tasks API. All operations act on the user's default task list.
package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"tasklist/internal/config"
	"tasklist/internal/service"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks fetched per API page.
	PageSize = 100

	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// Scope is the OAuth scope for Google Tasks.
	Scope = "https://www.googleapis.com/auth/tasks"

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"
)

// ErrAuth marks failures the user fixes by logging in again.
var ErrAuth = errors.New("token expired or revoked (run: tasklist login)")

var _ service.Service = (*Client)(nil)

// Client implements service.Service using Google Tasks API.
type Client struct {
	svc    *tasks.Service
	listID string
}

// New creates a new Google Tasks client.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	// Load OAuth client config
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(clientJSON, Scope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}

	// Load token
	tokenData, err := os.ReadFile(cfg.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read token.json: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("invalid token.json: %w", err)
	}

	// Token source refreshes automatically
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, &token))

	svc, err := tasks.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}

	return &Client{svc: svc, listID: DefaultListID}, nil
}

// NewWithEndpoint creates a client against a custom endpoint with a custom
// HTTP client (for testing).
func NewWithEndpoint(ctx context.Context, endpoint string, httpClient *http.Client) (*Client, error) {
	svc, err := tasks.NewService(ctx,
		option.WithHTTPClient(httpClient),
		option.WithEndpoint(endpoint),
	)
	if err != nil {
		return nil, err
	}
	return &Client{svc: svc, listID: DefaultListID}, nil
}

// ListTasks returns every task of the default list, completed ones included,
// in API order.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var result []service.Task
	err := c.svc.Tasks.List(c.listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, task := range resp.Items {
				result = append(result, toTask(task))
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}
	return result, nil
}

// CreateTask creates an open task in the default list.
func (c *Client) CreateTask(ctx context.Context, title string) (service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	created, err := c.svc.Tasks.Insert(c.listID, &tasks.Task{
		Title:  title,
		Status: statusNeedsAction,
	}).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return toTask(created), nil
}

// UpdateTask patches a task. Reopening a task clears its completion time,
// which the API only accepts as an explicit null.
func (c *Client) UpdateTask(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	if patch.IsEmpty() {
		return service.Task{}, errors.New("empty update")
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	update := &tasks.Task{}
	if patch.Title != nil {
		update.Title = *patch.Title
	}
	if patch.Completed != nil {
		if *patch.Completed {
			update.Status = statusCompleted
		} else {
			update.Status = statusNeedsAction
			update.NullFields = []string{"Completed"}
		}
	}

	updated, err := c.svc.Tasks.Patch(c.listID, id, update).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return toTask(updated), nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	if err := c.svc.Tasks.Delete(c.listID, id).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}
	return nil
}

func toTask(t *tasks.Task) service.Task {
	return service.Task{
		ID:        t.Id,
		Title:     t.Title,
		Completed: t.Status == statusCompleted,
	}
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrAuth
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", strings.TrimSpace(apiErr.Message), service.ErrNotFound)
		}
	}

	return err
}
